package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheetatlas/sheetatlas"
	"github.com/sheetatlas/sheetatlas/xlsxreader"
)

var describeCmd = &cobra.Command{
	Use:   "describe <workbook.xlsx>",
	Short: "Show workbook structure without enriching it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	describeCmd.Flags().IntVar(&flagMaxHeaderScan, "max-header-scan", 0, "rows examined by header detection (overrides config)")
	describeCmd.Flags().IntVar(&flagHeaderRows, "header-rows", -1, "fixed header row count, -1 to detect")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	if f.Changed("max-header-scan") {
		cfg.MaxHeaderScan = flagMaxHeaderScan
	}
	if f.Changed("header-rows") {
		cfg.HeaderRows = flagHeaderRows
	}

	wb, err := xlsxreader.Load(args[0], readerOptions(cfg, nil)...)
	if err != nil {
		return err
	}
	defer wb.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workbook: %s (%d sheets, %s date system)\n", args[0], len(wb.Sheets), wb.DateSystem)
	for _, sheet := range wb.Sheets {
		fmt.Fprint(out, sheetatlas.Summarize(sheet, nil))
		if sheet.HasMerges() {
			analysis := sheetatlas.AnalyzeMerges(sheet, cfg.ChaosThreshold)
			fmt.Fprintf(out, "  Merge complexity: %s (%d ranges, %.1f%% of cells), recommended strategy: %s\n",
				analysis.Complexity, analysis.RangeCount, analysis.MergedPercent*100,
				sheetatlas.RecommendStrategy(analysis))
		}
	}
	return nil
}
