package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sheetatlas/sheetatlas"
	"github.com/sheetatlas/sheetatlas/xlsxreader"
)

var (
	flagRules          string
	flagSampleSize     int
	flagConfidence     float64
	flagMergeStrategy  string
	flagChaosThreshold float64
	flagMergeWarnCells int
	flagMaxHeaderScan  int
	flagHeaderRows     int
	flagNoDates        bool
	flagNoCurrency     bool
	flagNoBooleans     bool
	flagNoTextClean    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <workbook.xlsx>",
	Short: "Enrich every sheet in a workbook and report columns and findings",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&flagRules, "rules", "", "column rule file (yaml)")
	f.IntVar(&flagSampleSize, "sample-size", 0, "rows sampled per column (overrides config)")
	f.Float64Var(&flagConfidence, "confidence-threshold", 0, "minimum type confidence before warning (overrides config)")
	f.StringVar(&flagMergeStrategy, "merge-strategy", "", "merge strategy: auto, expand, keep-top-left, flatten, header")
	f.Float64Var(&flagChaosThreshold, "chaos-threshold", 0, "merged-cell share that flags a chaotic sheet (overrides config)")
	f.IntVar(&flagMergeWarnCells, "merge-warn-cells", 0, "merged range size that triggers a warning (overrides config)")
	f.IntVar(&flagMaxHeaderScan, "max-header-scan", 0, "rows examined by header detection (overrides config)")
	f.IntVar(&flagHeaderRows, "header-rows", -1, "fixed header row count, -1 to detect")
	f.BoolVar(&flagNoDates, "no-dates", false, "disable serial and literal date parsing")
	f.BoolVar(&flagNoCurrency, "no-currency", false, "disable currency symbol stripping")
	f.BoolVar(&flagNoBooleans, "no-booleans", false, "disable boolean token parsing")
	f.BoolVar(&flagNoTextClean, "no-text-clean", false, "disable whitespace and invisible character cleanup")
	rootCmd.AddCommand(analyzeCmd)
}

// applyAnalyzeOverrides copies changed flags over the loaded config.
func applyAnalyzeOverrides(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("rules") {
		cfg.Rules = flagRules
	}
	if f.Changed("sample-size") {
		cfg.SampleSize = flagSampleSize
	}
	if f.Changed("confidence-threshold") {
		cfg.ConfidenceThreshold = flagConfidence
	}
	if f.Changed("merge-strategy") {
		cfg.MergeStrategy = flagMergeStrategy
	}
	if f.Changed("chaos-threshold") {
		cfg.ChaosThreshold = flagChaosThreshold
	}
	if f.Changed("merge-warn-cells") {
		cfg.MergeWarnCells = flagMergeWarnCells
	}
	if f.Changed("max-header-scan") {
		cfg.MaxHeaderScan = flagMaxHeaderScan
	}
	if f.Changed("header-rows") {
		cfg.HeaderRows = flagHeaderRows
	}
	if f.Changed("no-dates") {
		cfg.NoDates = flagNoDates
	}
	if f.Changed("no-currency") {
		cfg.NoCurrency = flagNoCurrency
	}
	if f.Changed("no-booleans") {
		cfg.NoBooleans = flagNoBooleans
	}
	if f.Changed("no-text-clean") {
		cfg.NoTextClean = flagNoTextClean
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	applyAnalyzeOverrides(cmd)
	path := args[0]

	pool := sheetatlas.NewInternPool()
	wb, err := xlsxreader.Load(path, readerOptions(cfg, pool)...)
	if err != nil {
		return err
	}
	defer wb.Close()
	slog.Info("workbook loaded", "path", path, "sheets", len(wb.Sheets), "date_system", wb.DateSystem)

	opts, err := enrichOptions(cfg, pool)
	if err != nil {
		return err
	}
	opts = append(opts, sheetatlas.WithNormalizerOptions(sheetatlas.WithDateSystem(wb.DateSystem)))
	enricher := sheetatlas.NewEnricher(opts...)

	// One goroutine per sheet; the enricher and intern pool are shared,
	// every diagnostics collector is owned by exactly one goroutine.
	diags := make([]*sheetatlas.Diagnostics, len(wb.Sheets))
	var g errgroup.Group
	for i, sheet := range wb.Sheets {
		g.Go(func() error {
			diags[i] = sheetatlas.NewDiagnostics()
			enricher.Enrich(sheet, diags[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	quality := false
	for i, sheet := range wb.Sheets {
		fmt.Fprint(out, sheetatlas.Summarize(sheet, diags[i]))
		for _, d := range diags[i].All() {
			logDiagnostic(d)
		}
		if diags[i].Max() >= sheetatlas.SeverityError && diags[i].Len() > 0 {
			quality = true
		}
		slog.Info("sheet enriched", "sheet", sheet.Name(), "diagnostics", diags[i].Len())
	}
	if quality {
		return errQuality
	}
	return nil
}

// readerOptions maps config onto reader options.
func readerOptions(c *config, pool *sheetatlas.InternPool) []xlsxreader.Option {
	var opts []xlsxreader.Option
	if pool != nil {
		opts = append(opts, xlsxreader.WithInternPool(pool))
	}
	if c.MaxHeaderScan > 0 {
		opts = append(opts, xlsxreader.WithMaxHeaderScan(c.MaxHeaderScan))
	}
	if c.HeaderRows >= 0 {
		opts = append(opts, xlsxreader.WithHeaderRows(c.HeaderRows))
	}
	return opts
}

// enrichOptions maps config onto enrichment options, loading and checking
// the rule file when one is configured.
func enrichOptions(c *config, pool *sheetatlas.InternPool) ([]sheetatlas.Option, error) {
	opts := []sheetatlas.Option{
		sheetatlas.WithInternPool(pool),
	}
	if c.SampleSize > 0 {
		opts = append(opts, sheetatlas.WithSampleSize(c.SampleSize))
	}
	if c.ConfidenceThreshold > 0 {
		opts = append(opts, sheetatlas.WithConfidenceThreshold(c.ConfidenceThreshold))
	}
	if c.ChaosThreshold > 0 {
		opts = append(opts, sheetatlas.WithChaosThreshold(c.ChaosThreshold))
	}
	if c.MergeWarnCells > 0 {
		opts = append(opts, sheetatlas.WithMergeWarnCellCount(c.MergeWarnCells))
	}
	if c.MergeStrategy != "" && c.MergeStrategy != "auto" {
		strategy, err := sheetatlas.ParseMergeStrategy(c.MergeStrategy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sheetatlas.WithMergeStrategy(strategy))
	}
	if c.Rules != "" {
		rs, err := sheetatlas.LoadRules(c.Rules)
		if err != nil {
			return nil, err
		}
		if issues := rs.Validate(); len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, issue := range issues {
				msgs[i] = issue.String()
			}
			return nil, fmt.Errorf("invalid rules in %s: %s", c.Rules, strings.Join(msgs, "; "))
		}
		opts = append(opts, sheetatlas.WithRules(rs))
	}

	var norm []sheetatlas.NormalizerOption
	if c.NoDates {
		norm = append(norm, sheetatlas.WithDateParsing(false))
	}
	if c.NoCurrency {
		norm = append(norm, sheetatlas.WithCurrencyCleaning(false))
	}
	if c.NoBooleans {
		norm = append(norm, sheetatlas.WithBooleanParsing(false))
	}
	if c.NoTextClean {
		norm = append(norm, sheetatlas.WithTextCleaning(false))
	}
	if len(norm) > 0 {
		opts = append(opts, sheetatlas.WithNormalizerOptions(norm...))
	}
	return opts, nil
}

// logDiagnostic emits a diagnostic at its mapped slog level.
func logDiagnostic(d sheetatlas.Diagnostic) {
	args := []any{"context", d.Context}
	if d.Location != nil {
		args = append(args, "cell", d.Location.Address)
	}
	switch d.Severity {
	case sheetatlas.SeverityInfo:
		slog.Info(d.Message, args...)
	case sheetatlas.SeverityWarning:
		slog.Warn(d.Message, args...)
	default:
		slog.Error(d.Message, append(args, "severity", d.Severity.String())...)
	}
}
