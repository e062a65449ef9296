package reporter

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var cleanCSVHeader = []string{
	"path", "name", "category", "risk_level", "size_bytes",
	"outcome", "bytes_freed", "backup_path", "failure_kind", "failure_reason", "failure_message",
}

// ReportClean renders the outcome of a cleanup run
func (r *Reporter) ReportClean(sum *cleaner.Summary) error {
	if sum == nil {
		return fmt.Errorf("no cleanup summary to report")
	}

	switch r.format {
	case FormatText:
		return r.cleanText(sum, true)
	case FormatSummary:
		return r.cleanText(sum, false)
	case FormatJSON:
		return r.reportJSON(sum)
	case FormatYAML:
		return r.reportYAML(sum)
	case FormatCSV:
		return r.cleanCSV(sum)
	default:
		return fmt.Errorf("unsupported format for cleanup summary: %s", r.format)
	}
}

func (r *Reporter) cleanText(sum *cleaner.Summary, detailed bool) error {
	title := "=== Cleanup Summary ==="
	if sum.DryRun {
		title = "=== Dry Run Summary ==="
	}
	fmt.Fprintln(r.writer, styles.TitleStyle.Render(title))
	fmt.Fprintf(r.writer, "Mode: %s, started %s, took %s\n",
		sum.Mode, sum.StartedAt.Format("2006-01-02 15:04:05"), sum.Duration.Round(time.Millisecond))

	if detailed && len(sum.Results) > 0 {
		fmt.Fprintln(r.writer)
		for i := range sum.Results {
			res := &sum.Results[i]
			fmt.Fprintf(r.writer, "  %s %-10s %-32s %s\n",
				outcomeMark(res.Outcome),
				utils.FormatBytes(res.SizeBytes),
				res.Name,
				styles.DimStyle.Render(string(res.Outcome)))
			if res.BackupPath != "" {
				fmt.Fprintf(r.writer, "      backup: %s\n", styles.FilePathStyle.Render(res.BackupPath))
			}
			if res.Failure != nil {
				fmt.Fprintf(r.writer, "      %s\n", styles.ErrorStyle.Render(res.Failure.Message))
			}
		}
		fmt.Fprintln(r.writer, strings.Repeat("-", 60))
	}

	if sum.DryRun {
		fmt.Fprintf(r.writer, "Would free %s across %d items (nothing was deleted)\n",
			styles.FileSizeStyle.Render(utils.FormatBytes(sum.BytesFreed)), sum.Count(cleaner.OutcomeSkippedDryRun))
	} else {
		fmt.Fprintf(r.writer, "Deleted: %d items, freed %s\n",
			sum.ItemsDeleted, styles.FileSizeStyle.Render(utils.FormatBytes(sum.BytesFreed)))
	}
	fmt.Fprintf(r.writer, "Skipped: %d, Failed: %d\n", sum.ItemsSkipped, sum.ItemsFailed)

	if sum.Aborted {
		reason := sum.AbortReason
		if reason == "" {
			reason = "stopped by user"
		}
		fmt.Fprintln(r.writer, styles.WarningStyle.Render("Aborted: "+reason))
	}

	if s := cleaner.FormatFailureSummary(sum.Failures); s != "" {
		fmt.Fprint(r.writer, s)
	}
	return nil
}

func outcomeMark(o cleaner.Outcome) string {
	switch o {
	case cleaner.OutcomeDeleted:
		return styles.SuccessStyle.Render("✓")
	case cleaner.OutcomeFailed:
		return styles.ErrorStyle.Render("✗")
	default:
		return styles.DimStyle.Render("-")
	}
}

func (r *Reporter) cleanCSV(sum *cleaner.Summary) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(cleanCSVHeader); err != nil {
		return err
	}

	for i := range sum.Results {
		res := &sum.Results[i]
		var kind, reason, msg string
		if res.Failure != nil {
			kind = string(res.Failure.Kind)
			reason = res.Failure.Reason.String()
			msg = res.Failure.Message
		}
		row := []string{
			res.Path,
			res.Name,
			string(res.Category),
			res.RiskLevel.String(),
			strconv.FormatInt(res.SizeBytes, 10),
			string(res.Outcome),
			strconv.FormatInt(res.BytesFreed, 10),
			res.BackupPath,
			kind,
			reason,
			msg,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
