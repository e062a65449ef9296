package reporter

import (
	"encoding/csv"
	"strconv"
	"time"

	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var csvHeader = []string{
	"path", "name", "category", "risk_level", "size_bytes", "size",
	"file_count", "dir_count", "age_days", "is_stale",
	"last_accessed", "last_modified", "scan_error",
}

// reportCSV writes one row per item
func (r *Reporter) reportCSV(items []scanner.Item) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		scanErr := ""
		if item.ScanError != nil {
			scanErr = item.ScanError.Error()
		}
		row := []string{
			item.Path,
			item.Name,
			string(item.Category),
			item.RiskLevel.String(),
			strconv.FormatInt(item.SizeBytes, 10),
			utils.FormatBytes(item.SizeBytes),
			strconv.Itoa(item.FileCount),
			strconv.Itoa(item.DirCount),
			strconv.Itoa(item.AgeDays),
			strconv.FormatBool(item.IsStale),
			formatTime(item.LastAccessed),
			formatTime(item.LastModified),
			scanErr,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
