package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	uiutils "github.com/fenilsonani/cachescope/internal/ui/utils"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

const pathWidth = 60

// reportSummary generates a summary report
func (r *Reporter) reportSummary(snap *analyzer.Snapshot) error {
	stats := snap.Stats()
	meta := snap.Metadata()

	fmt.Fprintln(r.writer, styles.TitleStyle.Render("=== Inventory Summary ==="))
	r.writeHeader(snap)
	fmt.Fprintf(r.writer, "Locations: %d, Files: %d, Total Size: %s\n",
		stats.ItemCount, stats.TotalFiles, styles.FileSizeStyle.Render(utils.FormatBytes(stats.TotalSize)))
	fmt.Fprintf(r.writer, "Safe to clean: %s in %d locations\n",
		utils.FormatBytes(stats.CleanableSize), stats.CleanableCount)
	fmt.Fprintf(r.writer, "Stale (%d+ days): %s in %d locations\n",
		meta.StaleThresholdDays, utils.FormatBytes(stats.StaleSize), stats.StaleCount)
	if du := snap.Disk(); snap.DiskErr() == nil && du.Used > 0 {
		fmt.Fprintf(r.writer, "Share of used disk: %.1f%%\n", utils.Percent(uint64(stats.TotalSize), du.Used))
	}

	fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")
	for _, row := range categoryRows(stats) {
		fmt.Fprintf(r.writer, "  %-14s %3d locations  %10s  %5.1f%%\n",
			styles.CategoryStyle.Render(string(row.Category)), row.Count, utils.FormatBytes(row.SizeBytes), row.Percent)
	}

	if stats.ErrorCount > 0 {
		fmt.Fprintf(r.writer, "\n%s\n", styles.WarningStyle.Render(fmt.Sprintf("Errors: %d locations could not be fully read", stats.ErrorCount)))
	}

	return nil
}

// reportText lists every item after the summary header
func (r *Reporter) reportText(snap *analyzer.Snapshot, items []scanner.Item) error {
	fmt.Fprintln(r.writer, styles.TitleStyle.Render("=== Storage Inventory ==="))
	r.writeHeader(snap)

	fmt.Fprintf(r.writer, "\n%-10s | %-8s | %-12s | %5s | %s\n", "Size", "Risk", "Category", "Age", "Location")
	fmt.Fprintln(r.writer, strings.Repeat("-", 100))

	var total int64
	for i := range items {
		item := &items[i]
		total += item.SizeBytes

		age := fmt.Sprintf("%dd", item.AgeDays)
		if item.IsStale {
			age += "*"
		}
		fmt.Fprintf(r.writer, "%-10s | %-8s | %-12s | %5s | %s\n",
			utils.FormatBytes(item.SizeBytes),
			styles.RiskStyle(item.RiskLevel).Render(fmt.Sprintf("%-8s", item.RiskLevel)),
			item.Category,
			age,
			item.Name)
		fmt.Fprintf(r.writer, "%-10s   %s\n", "", styles.FilePathStyle.Render(uiutils.TruncatePath(item.Path, pathWidth)))
		if item.ScanError != nil {
			fmt.Fprintf(r.writer, "%-10s   %s\n", "", styles.ErrorStyle.Render(item.ScanError.Error()))
		}
	}

	fmt.Fprintln(r.writer, strings.Repeat("-", 100))
	fmt.Fprintf(r.writer, "Total: %d locations, %s", len(items), utils.FormatBytes(total))
	if stale := countStale(items); stale > 0 {
		fmt.Fprintf(r.writer, " (* %d stale)", stale)
	}
	fmt.Fprintln(r.writer)

	return nil
}

func (r *Reporter) writeHeader(snap *analyzer.Snapshot) {
	meta := snap.Metadata()

	host := meta.Platform.Name
	if meta.Platform.Version != "" {
		host += " " + meta.Platform.Version
	}
	if meta.Platform.Hostname != "" {
		host += " on " + meta.Platform.Hostname
	}
	if meta.Platform.Username != "" {
		host += " (" + meta.Platform.Username + ")"
	}
	if host != "" {
		fmt.Fprintf(r.writer, "Host: %s\n", host)
	}

	fmt.Fprintf(r.writer, "Scanned %d locations at %s in %s: %d found, %d absent, %d failed, %d skipped\n",
		meta.PathsTotal, meta.ScanStartedAt.Format("2006-01-02 15:04:05"), meta.ScanDuration.Round(time.Millisecond),
		meta.PathsFound, meta.PathsAbsent, meta.PathsFailed, meta.PathsSkipped)

	if err := snap.DiskErr(); err != nil {
		fmt.Fprintf(r.writer, "Disk: %s\n", styles.DimStyle.Render("unavailable"))
	} else if du := snap.Disk(); du.Total > 0 {
		mount := du.MountPoint
		if mount == "" {
			mount = du.Path
		}
		fmt.Fprintf(r.writer, "Disk %s: %s used of %s (%.1f%%), %s free\n",
			mount,
			utils.FormatBytes(int64(du.Used)),
			utils.FormatBytes(int64(du.Total)),
			du.UsedPercent,
			utils.FormatBytes(int64(du.Free)))
	}
}

func countStale(items []scanner.Item) int {
	n := 0
	for i := range items {
		if items[i].IsStale {
			n++
		}
	}
	return n
}
