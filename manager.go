package timetable

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tidbyt.dev/timetable/downloader"
	"tidbyt.dev/timetable/metrics"
	"tidbyt.dev/timetable/model"
	"tidbyt.dev/timetable/parse"
	"tidbyt.dev/timetable/storage"
)

const (
	DefaultRefreshInterval = 1 * time.Minute
	DefaultDisplayInterval = 1 * time.Second
	DefaultFetchTimeout    = 30 * time.Second
	DefaultMaxSize         = 1 << 20 // 1 MB
)

var ErrNoDocument = errors.New("no timetable document available")

// Keeps a timetable document resolved and its display board current.
//
// Two periodic triggers drive it. Refresh fetches the document and
// resolves it into a Timetable; Tick builds a Board from the latest
// Timetable. They share nothing but the atomically swapped Timetable
// snapshot, so a Tick never sees a half built refresh and never
// re-resolves the document itself.
type Manager struct {
	URL     string
	Headers map[string]string

	RefreshInterval time.Duration
	DisplayInterval time.Duration
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
	MaxSize         int
	DefaultTimezone string

	// Passed on to the downloader; set for sources that must serve
	// application/json.
	RequireJSON bool

	Downloader downloader.Downloader
	Parse      func([]byte) (*model.Document, error)
	Logger     *slog.Logger
	Metrics    *metrics.Collector

	// Receives every board built by Tick.
	OnBoard func(*Board)

	TimeNow func() time.Time

	storage  storage.Storage
	snapshot atomic.Pointer[snapshot]
	board    atomic.Pointer[Board]
}

// Result of one refresh.
type snapshot struct {
	state     State
	doc       *model.Document
	timetable *Timetable
	err       error
}

// Creates a Manager for the document at url. Retrieved documents
// are kept in s and used when the source can't be reached.
func NewManager(url string, s storage.Storage) *Manager {
	return &Manager{
		URL:             url,
		Headers:         map[string]string{},
		RefreshInterval: DefaultRefreshInterval,
		DisplayInterval: DefaultDisplayInterval,
		FetchTimeout:    DefaultFetchTimeout,
		MaxSize:         DefaultMaxSize,
		DefaultTimezone: DefaultTimezone,

		Downloader: downloader.NewMemoryDownloader(),
		Parse:      parse.ParseDocument,
		Logger:     slog.Default(),

		TimeNow: time.Now,

		storage: s,
	}
}

// The Timetable of the last completed refresh, or nil.
func (m *Manager) Timetable() *Timetable {
	if snap := m.snapshot.Load(); snap != nil {
		return snap.timetable
	}
	return nil
}

// The Board of the last display tick, or nil.
func (m *Manager) Board() *Board {
	return m.board.Load()
}

// Fetches and resolves the document. If the fetch fails, the most
// recently stored copy is resolved instead, or failing that the
// document of the previous refresh. The error is returned either
// way; it is only fatal for this refresh if neither exists.
func (m *Manager) Refresh(ctx context.Context) error {
	now := m.TimeNow()

	doc, fetchErr := m.fetch(ctx, now)
	if fetchErr != nil {
		m.logger().Warn("fetching timetable", "url", m.URL, "err", fetchErr)

		stored, err := m.loadStored()
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				m.logger().Error("loading stored timetable", "url", m.URL, "err", err)
			}

			prev := m.snapshot.Load()
			if prev == nil || prev.doc == nil {
				m.snapshot.Store(&snapshot{
					state: StateFetchFailed,
					err:   fmt.Errorf("%w: %w", ErrNoDocument, fetchErr),
				})
				m.countRefresh("failed")
				return fetchErr
			}

			// Nothing stored, e.g. after a failed write. Re-resolve
			// what we had so the day still rolls over.
			m.logger().Warn("using previous timetable", "url", m.URL)
			doc = prev.doc
			m.countRefresh("previous")
		} else {
			doc = stored
			m.countRefresh("stored")
			if m.Metrics != nil {
				m.Metrics.StoredFallbacks.Inc()
			}
		}
	} else {
		m.countRefresh("ok")
	}

	tt := Resolve(doc, now, Options{DefaultTimezone: m.DefaultTimezone})

	state := StateReady
	if tt.Empty() {
		state = StateNoTimetable
	}
	m.snapshot.Store(&snapshot{state: state, doc: doc, timetable: tt})

	if m.Metrics != nil {
		m.Metrics.Stops.Set(float64(len(tt.Stops)))
	}
	m.logger().Info(
		"timetable resolved",
		"url", m.URL,
		"state", state,
		"stops", len(tt.Stops),
		"season", tt.Season,
		"day_type", tt.DayType,
		"holiday", tt.Holiday,
	)

	return fetchErr
}

// Builds the board for the current time from the latest Timetable.
func (m *Manager) Tick() *Board {
	now := m.TimeNow()

	var board *Board
	snap := m.snapshot.Load()
	switch {
	case snap == nil:
		board = &Board{State: StatePending, At: now}
	case snap.state == StateReady:
		board = BuildBoard(snap.timetable, now)
	default:
		board = &Board{State: snap.state, At: now, Timetable: snap.timetable, Err: snap.err}
	}

	m.board.Store(board)
	if m.Metrics != nil {
		m.Metrics.DisplayTicks.Inc()
	}
	if m.OnBoard != nil {
		m.OnBoard(board)
	}

	return board
}

// Refreshes and ticks until ctx is done. The first refresh and tick
// happen immediately.
func (m *Manager) Run(ctx context.Context) error {
	if m.RefreshInterval <= 0 || m.DisplayInterval <= 0 {
		return fmt.Errorf("refresh and display intervals must be positive")
	}

	// Failures are logged by Refresh and retried on the next tick.
	_ = m.Refresh(ctx)
	m.Tick()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(m.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = m.Refresh(ctx)
			}
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(m.DisplayInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Tick()
			}
		}
	}()

	wg.Wait()
	return nil
}

// Downloads and parses the document, and stores it on success.
func (m *Manager) fetch(ctx context.Context, now time.Time) (*model.Document, error) {
	start := time.Now()
	defer func() {
		if m.Metrics != nil {
			m.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
		}
	}()

	body, err := m.Downloader.Get(ctx, m.URL, m.Headers, downloader.GetOptions{
		Cache:       m.CacheTTL > 0,
		CacheTTL:    m.CacheTTL,
		Timeout:     m.FetchTimeout,
		MaxSize:     m.MaxSize,
		RequireJSON: m.RequireJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("downloading: %w", err)
	}

	doc, err := m.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	for _, w := range doc.Warnings {
		m.logger().Debug("timetable warning", "url", m.URL, "warning", w)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(body))
	err = m.storage.WriteDocument(&storage.DocumentRecord{
		URL:         m.URL,
		Hash:        hash,
		RetrievedAt: now.UTC(),
		Timezone:    doc.Timezone,
		Operator:    doc.Operator,
		Body:        body,
	})
	if err != nil {
		// The document is good, only the copy is lost.
		m.logger().Error("storing timetable", "url", m.URL, "hash", hash, "err", err)
	}

	return doc, nil
}

func (m *Manager) loadStored() (*model.Document, error) {
	record, err := storage.LatestDocument(m.storage, m.URL)
	if err != nil {
		return nil, err
	}

	doc, err := m.Parse(record.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing stored document %s: %w", record.Hash, err)
	}

	m.logger().Warn(
		"using stored timetable",
		"url", m.URL,
		"hash", record.Hash,
		"retrieved_at", record.RetrievedAt,
	)
	return doc, nil
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *Manager) countRefresh(result string) {
	if m.Metrics != nil {
		m.Metrics.Refreshes.WithLabelValues(result).Inc()
	}
}
