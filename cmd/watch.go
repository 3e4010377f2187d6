package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/timetable"
	"tidbyt.dev/timetable/config"
	"tidbyt.dev/timetable/downloader"
	"tidbyt.dev/timetable/metrics"
	"tidbyt.dev/timetable/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch [url|path]",
	Short: "Keeps the display board current, refreshing the document periodically",
	Args:  cobra.RangeArgs(0, 1),
	RunE:  watch,
}

var noClear bool

func init() {
	watchCmd.Flags().BoolVarP(&noClear, "no-clear", "", false, "Don't clear the screen between boards")
	rootCmd.AddCommand(watchCmd)
}

func watch(cmd *cobra.Command, args []string) error {
	source, err := sourceURL(args)
	if err != nil {
		return err
	}

	s, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer s.Close()

	m := timetable.NewManager(source, s)
	m.Headers = cfg.Headers
	m.RefreshInterval = cfg.RefreshInterval
	m.DisplayInterval = cfg.DisplayInterval
	m.FetchTimeout = cfg.FetchTimeout
	m.CacheTTL = cfg.CacheTTL
	m.MaxSize = cfg.MaxDocumentSize
	m.DefaultTimezone = cfg.DefaultTimezone
	m.RequireJSON = cfg.RequireJSON
	m.Downloader = downloader.NewFilesystem()
	m.Parse = parserFor(source)
	m.Logger = slog.Default().With("source", source)
	m.Metrics = metrics.NewCollector(cfg.RefreshInterval, cfg.DisplayInterval)

	out := cmd.OutOrStdout()
	m.OnBoard = func(board *timetable.Board) {
		redraw(out, board)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := m.Metrics.Serve(cfg.MetricsAddr, func(err error) {
			slog.Error("serving metrics", "addr", cfg.MetricsAddr, "err", err)
		})
		slog.Info("serving metrics", "addr", cfg.MetricsAddr)
		defer stopMetrics(srv, cfg.MetricsAddr)
	}

	return m.Run(ctx)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func stopMetrics(srv shutdowner, addr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("stopping metrics server", "addr", addr, "err", err)
	}
}

func openStorage(sc config.StorageConfig) (storage.Storage, error) {
	switch strings.ToLower(sc.Backend) {
	case "", "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.NewSQLiteStorage(storage.SQLiteConfig{
			OnDisk:    sc.Directory != "",
			Directory: sc.Directory,
		})
	case "postgres":
		return storage.NewPSQLStorage(sc.PostgresURL, false)
	}
	return nil, fmt.Errorf("unknown storage backend '%s'", sc.Backend)
}

func redraw(w io.Writer, board *timetable.Board) {
	if !noClear {
		fmt.Fprint(w, "\033[H\033[2J")
	}
	writeText(w, viewOf(board), board.Err)
}
