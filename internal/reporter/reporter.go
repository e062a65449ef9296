// Package reporter renders inventory snapshots and cleanup summaries. It
// only writes to the writer it is given.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatSummary OutputFormat = "summary"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatCSV     OutputFormat = "csv"
	FormatHTML    OutputFormat = "html"
)

// Formats lists every supported format
func Formats() []OutputFormat {
	return []OutputFormat{FormatText, FormatSummary, FormatJSON, FormatYAML, FormatCSV, FormatHTML}
}

// ParseFormat converts a format name, "table" being an alias for text
func ParseFormat(s string) (OutputFormat, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "table" || name == "" {
		return FormatText, nil
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("unsupported format: %s (supported: %s)", s, strings.Join(names, ", "))
}

// Extension returns the file extension conventionally used for f
func (f OutputFormat) Extension() string {
	switch f {
	case FormatText, FormatSummary:
		return ".txt"
	case FormatYAML:
		return ".yaml"
	default:
		return "." + string(f)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

// InventoryReport is the document written by the structured formats
type InventoryReport struct {
	GeneratedAt        time.Time           `json:"generated_at" yaml:"generated_at"`
	Metadata           analyzer.Metadata   `json:"metadata" yaml:"metadata"`
	Disk               *analyzer.DiskUsage `json:"disk,omitempty" yaml:"disk,omitempty"`
	Stats              analyzer.Stats      `json:"stats" yaml:"stats"`
	TotalSizeFormatted string              `json:"total_size_formatted" yaml:"total_size_formatted"`
	Items              []scanner.Item      `json:"items" yaml:"items"`
}

// Report renders snap. When items is nil every item of the snapshot is
// listed; otherwise only items, typically a selection from it.
func (r *Reporter) Report(snap *analyzer.Snapshot, items []scanner.Item) error {
	if snap == nil {
		return fmt.Errorf("no inventory to report")
	}
	if items == nil {
		items = snap.Items()
	}

	switch r.format {
	case FormatText:
		return r.reportText(snap, items)
	case FormatSummary:
		return r.reportSummary(snap)
	case FormatJSON:
		return r.reportJSON(r.document(snap, items))
	case FormatYAML:
		return r.reportYAML(r.document(snap, items))
	case FormatCSV:
		return r.reportCSV(items)
	case FormatHTML:
		return r.reportHTML(r.document(snap, items))
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) document(snap *analyzer.Snapshot, items []scanner.Item) *InventoryReport {
	stats := snap.Stats()
	doc := &InventoryReport{
		GeneratedAt:        r.now(),
		Metadata:           snap.Metadata(),
		Stats:              stats,
		TotalSizeFormatted: utils.FormatBytes(stats.TotalSize),
		Items:              items,
	}
	if snap.DiskErr() == nil && snap.Disk().Total > 0 {
		du := snap.Disk()
		doc.Disk = &du
	}
	return doc
}

func (r *Reporter) reportJSON(doc any) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func (r *Reporter) reportYAML(doc any) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(doc)
}

// categoryRow is one line of a per-category breakdown
type categoryRow struct {
	Category scanner.Category
	analyzer.CategoryStats
	Percent float64
}

// categoryRows returns the breakdown sorted by size, largest first
func categoryRows(stats analyzer.Stats) []categoryRow {
	rows := make([]categoryRow, 0, len(stats.ByCategory))
	for c, cs := range stats.ByCategory {
		row := categoryRow{Category: c, CategoryStats: cs}
		if stats.TotalSize > 0 {
			row.Percent = float64(cs.SizeBytes) / float64(stats.TotalSize) * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SizeBytes != rows[j].SizeBytes {
			return rows[i].SizeBytes > rows[j].SizeBytes
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// SaveToFile saves the report to a file
func SaveToFile(snap *analyzer.Snapshot, items []scanner.Item, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(snap, items)
}
