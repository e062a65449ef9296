package analyzer

import (
	"time"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// DiskUsage describes the volume holding the user's data
type DiskUsage struct {
	Path        string  `json:"path" yaml:"path"`
	MountPoint  string  `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
	Fstype      string  `json:"fstype,omitempty" yaml:"fstype,omitempty"`
	Total       uint64  `json:"total_bytes" yaml:"total_bytes"`
	Used        uint64  `json:"used_bytes" yaml:"used_bytes"`
	Free        uint64  `json:"free_bytes" yaml:"free_bytes"`
	UsedPercent float64 `json:"used_percent" yaml:"used_percent"`
}

// PlatformInfo identifies the machine a snapshot was taken on
type PlatformInfo struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// Metadata describes how a snapshot was produced
type Metadata struct {
	ScanStartedAt      time.Time     `json:"scan_started_at" yaml:"scan_started_at"`
	ScanDuration       time.Duration `json:"scan_duration" yaml:"scan_duration"`
	Platform           PlatformInfo  `json:"platform" yaml:"platform"`
	StaleThresholdDays int           `json:"stale_threshold_days" yaml:"stale_threshold_days"`
	PathsTotal         int           `json:"paths_total" yaml:"paths_total"`
	PathsFound         int           `json:"paths_found" yaml:"paths_found"`
	PathsAbsent        int           `json:"paths_absent" yaml:"paths_absent"`
	PathsFailed        int           `json:"paths_failed" yaml:"paths_failed"`
	PathsSkipped       int           `json:"paths_skipped" yaml:"paths_skipped"`
}

// CategoryStats aggregates the items of one category
type CategoryStats struct {
	Count     int   `json:"count" yaml:"count"`
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`
	FileCount int   `json:"file_count" yaml:"file_count"`
}

// Stats summarizes a snapshot. Cleanable means risk level safe.
type Stats struct {
	ItemCount      int                                `json:"item_count" yaml:"item_count"`
	TotalSize      int64                              `json:"total_size" yaml:"total_size"`
	TotalFiles     int                                `json:"total_files" yaml:"total_files"`
	ByCategory     map[scanner.Category]CategoryStats `json:"by_category" yaml:"by_category"`
	CleanableSize  int64                              `json:"cleanable_size" yaml:"cleanable_size"`
	CleanableCount int                                `json:"cleanable_count" yaml:"cleanable_count"`
	StaleSize      int64                              `json:"stale_size" yaml:"stale_size"`
	StaleCount     int                                `json:"stale_count" yaml:"stale_count"`
	ErrorCount     int                                `json:"error_count" yaml:"error_count"`
}

// Snapshot is the immutable result of one inventory build. Items keep the
// order of the descriptors they were scanned from.
type Snapshot struct {
	items   []scanner.Item
	index   map[string]int
	meta    Metadata
	disk    DiskUsage
	diskErr error
	stats   Stats
}

// NewSnapshot assembles a snapshot from already scanned items
func NewSnapshot(items []scanner.Item, meta Metadata, disk DiskUsage) *Snapshot {
	s := &Snapshot{
		items: append([]scanner.Item(nil), items...),
		index: make(map[string]int, len(items)),
		meta:  meta,
		disk:  disk,
	}
	for i, item := range s.items {
		s.index[item.Path] = i
	}
	s.stats = computeStats(s.items)
	return s
}

// Items returns the items in descriptor order. The slice is a copy; the
// maps and slices inside each item are shared and must not be modified.
func (s *Snapshot) Items() []scanner.Item {
	return append([]scanner.Item(nil), s.items...)
}

// Len returns the number of items
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Item looks an item up by path
func (s *Snapshot) Item(path string) (scanner.Item, bool) {
	i, ok := s.index[path]
	if !ok {
		return scanner.Item{}, false
	}
	return s.items[i], true
}

func (s *Snapshot) Metadata() Metadata {
	return s.meta
}

func (s *Snapshot) Disk() DiskUsage {
	return s.disk
}

// DiskErr returns the disk usage query failure, if any
func (s *Snapshot) DiskErr() error {
	return s.diskErr
}

// Stats returns the summary statistics
func (s *Snapshot) Stats() Stats {
	out := s.stats
	out.ByCategory = make(map[scanner.Category]CategoryStats, len(s.stats.ByCategory))
	for k, v := range s.stats.ByCategory {
		out.ByCategory[k] = v
	}
	return out
}

func computeStats(items []scanner.Item) Stats {
	st := Stats{
		ItemCount:  len(items),
		ByCategory: make(map[scanner.Category]CategoryStats),
	}
	for i := range items {
		item := &items[i]
		st.TotalSize += item.SizeBytes
		st.TotalFiles += item.FileCount

		cs := st.ByCategory[item.Category]
		cs.Count++
		cs.SizeBytes += item.SizeBytes
		cs.FileCount += item.FileCount
		st.ByCategory[item.Category] = cs

		if item.RiskLevel == scanner.RiskSafe {
			st.CleanableSize += item.SizeBytes
			st.CleanableCount++
		}
		if item.IsStale {
			st.StaleSize += item.SizeBytes
			st.StaleCount++
		}
		if item.Failed() {
			st.ErrorCount++
		}
	}
	return st
}
