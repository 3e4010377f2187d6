package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"tidbyt.dev/timetable/config"
	"tidbyt.dev/timetable/downloader"
	"tidbyt.dev/timetable/model"
	"tidbyt.dev/timetable/parse"
)

var rootCmd = &cobra.Command{
	Use:               "timetable",
	Short:             "Timetable tool",
	Long:              "Resolves seasonal ferry and bus timetables into today's departures",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	logLevel   string
	headers    []string

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSliceVarP(
		&headers,
		"header",
		"",
		[]string{},
		"HTTP header sent when fetching the document, on form <key>:<value>",
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	extra, err := parseHeaders(headers)
	if err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for k, v := range extra {
		cfg.Headers[k] = v
	}

	return nil
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}

// The document location from args, falling back to the configured
// source.
func sourceURL(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.SourceURL == "" {
		return "", fmt.Errorf("document URL or path is required")
	}
	return cfg.SourceURL, nil
}

// Picks the parser from the file extension. Anything not .csv is
// treated as JSON or YAML.
func parserFor(source string) func([]byte) (*model.Document, error) {
	if strings.EqualFold(filepath.Ext(source), ".csv") {
		return parse.ParseCSV
	}
	return parse.ParseDocument
}

func loadDocument(ctx context.Context, source string) (*model.Document, error) {
	body, err := downloader.NewFilesystem().Get(ctx, source, cfg.Headers, downloader.GetOptions{
		Timeout:     cfg.FetchTimeout,
		MaxSize:     cfg.MaxDocumentSize,
		RequireJSON: cfg.RequireJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", source, err)
	}

	doc, err := parserFor(source)(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	for _, w := range doc.Warnings {
		slog.Warn("document warning", "source", source, "warning", w)
	}

	return doc, nil
}
