package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config

	flagLogLevel  string
	flagLogFormat string
)

// errQuality signals that analysis completed but found error-severity
// diagnostics. Execute maps it to exit code 1; operational failures exit 2.
var errQuality = errors.New("analysis found data errors")

var rootCmd = &cobra.Command{
	Use:   "sheetatlas",
	Short: "Inspect and enrich spreadsheet data",
	Long: `sheetatlas loads xlsx workbooks into an in-memory store, resolves
merged cells, normalizes values, and reports per-column types, currencies,
and data quality findings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cobra.OnInitialize(initConfig)
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errQuality) {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sheetatlas.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text, json")
}

func initConfig() {
	c, err := loadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		c = &config{LogLevel: "info", LogFormat: "text", MergeStrategy: "auto", HeaderRows: -1}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)
}

// setupLogging configures the global slog logger. Logs go to stderr so
// reports on stdout stay machine-consumable; every entry carries a run id.
func setupLogging(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString()))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
