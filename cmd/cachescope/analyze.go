package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/reporter"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var (
	analyzeFilters criteriaFlags
	analyzeSummary bool

	reportFilters criteriaFlags
	reportFormat  string
	reportOutput  string
	reportAll     bool
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"scan"},
	Short:   "Measure every known location and show what could be cleaned",
	Long: `Scans the location catalog and prints each location's size, file count,
age and risk. Filters narrow the listing to the items a clean with the same
filters would offer. Nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		crit, err := analyzeFilters.criteria(cmd, a.cfg)
		if err != nil {
			return err
		}

		snap, err := a.inventory(cmd)
		if err != nil {
			return err
		}

		format := reporter.FormatText
		if analyzeSummary {
			format = reporter.FormatSummary
		}
		items := analyzer.Select(snap, crit)
		if err := reporter.New(cmd.OutOrStdout(), format).Report(snap, items); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if !analyzeSummary && len(items) > 0 {
			var total int64
			for i := range items {
				total += items[i].SizeBytes
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d items selected, %s reclaimable. Run 'cachescope clean' with the same filters to clear them.\n",
				len(items), utils.FormatBytes(total))
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the inventory as text, JSON, YAML, CSV or HTML",
	Long: `Scans the location catalog and writes a report in the chosen format, to
stdout or to a file. With --output and no --format the format follows the
file extension.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reportFormatFor(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		crit, err := reportFilters.criteria(cmd, a.cfg)
		if err != nil {
			return err
		}

		snap, err := a.inventory(cmd)
		if err != nil {
			return err
		}

		items := analyzer.Select(snap, crit)
		if reportAll {
			items = nil
		}

		if reportOutput != "" {
			if err := reporter.SaveToFile(snap, items, reportOutput, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", reportOutput)
			return nil
		}

		if err := reporter.New(cmd.OutOrStdout(), format).Report(snap, items); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		return nil
	},
}

// reportFormatFor resolves --format, falling back to the extension of
// --output
func reportFormatFor(cmd *cobra.Command) (reporter.OutputFormat, error) {
	if !cmd.Flags().Changed("format") && reportOutput != "" {
		for _, f := range reporter.Formats() {
			if f != reporter.FormatSummary && hasExt(reportOutput, f.Extension()) {
				return f, nil
			}
		}
	}
	return reporter.ParseFormat(reportFormat)
}

func hasExt(path, ext string) bool {
	got := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" && got == ".yml" {
		return true
	}
	return got == ext
}

func init() {
	analyzeFilters.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeSummary, "summary", false, "print only totals and the per-category breakdown")

	reportFilters.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "report format (text, summary, json, yaml, csv, html)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to this file")
	reportCmd.Flags().BoolVar(&reportAll, "all", false, "list every item, ignoring the filters")
}
