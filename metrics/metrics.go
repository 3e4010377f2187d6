package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Refreshes       *prometheus.CounterVec // result label: ok|stored|previous|failed
	StoredFallbacks prometheus.Counter
	FetchDuration   prometheus.Histogram
	Stops           prometheus.Gauge
	DisplayTicks    prometheus.Counter

	RefreshInterval prometheus.Gauge // seconds
	DisplayInterval prometheus.Gauge // seconds
}

func NewCollector(refreshInterval, displayInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_refresh_total",
			Help: "Timetable refreshes by outcome.",
		}, []string{"result"}),
		StoredFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_stored_fallbacks_total",
			Help: "Refreshes resolved from a stored document after a failed fetch.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_fetch_duration_seconds",
			Help:    "Duration of document fetch and parse.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		Stops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_stops",
			Help: "Number of stops in the current timetable.",
		}),
		DisplayTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_display_ticks_total",
			Help: "Display boards built.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_refresh_interval_seconds",
			Help: "Document refresh interval in seconds.",
		}),
		DisplayInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_display_interval_seconds",
			Help: "Display tick interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Refreshes, c.StoredFallbacks, c.FetchDuration,
		c.Stops, c.DisplayTicks,
		c.RefreshInterval, c.DisplayInterval,
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())
	c.DisplayInterval.Set(displayInterval.Seconds())

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
// Errors other than shutdown are passed to onError.
func (c *Collector) Serve(addr string, onError func(error)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && onError != nil {
			onError(err)
		}
	}()
	return srv
}
