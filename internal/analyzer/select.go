package analyzer

import (
	"github.com/fenilsonani/cachescope/internal/scanner"
)

// Criteria narrows a snapshot down to cleanup candidates. Zero values
// disable each rule: no categories means all, an unset MaxRisk allows
// every level, and a non-positive StaleThresholdDays uses the threshold
// the item was scanned with.
type Criteria struct {
	Categories         []scanner.Category `yaml:"categories,omitempty" toml:"categories,omitempty"`
	MinSizeBytes       int64              `yaml:"min_size_bytes,omitempty" toml:"min_size_bytes,omitempty"`
	MaxRisk            scanner.RiskLevel  `yaml:"max_risk,omitempty" toml:"max_risk,omitempty"`
	StaleOnly          bool               `yaml:"stale_only,omitempty" toml:"stale_only,omitempty"`
	StaleThresholdDays int                `yaml:"stale_threshold_days,omitempty" toml:"stale_threshold_days,omitempty"`
}

// Matches reports whether item passes every rule
func (c Criteria) Matches(item *scanner.Item) bool {
	if len(c.Categories) > 0 && !containsCategory(c.Categories, item.Category) {
		return false
	}
	if item.SizeBytes < c.MinSizeBytes {
		return false
	}
	if !item.RiskLevel.AtMost(c.MaxRisk) {
		return false
	}
	if c.StaleOnly {
		threshold := c.StaleThresholdDays
		if threshold <= 0 {
			threshold = item.StaleThresholdDays
		}
		if !item.IsStaleAt(threshold) {
			return false
		}
	}
	return true
}

// Select returns the items of snap matching c, in snapshot order.
// Listing and cleaning both go through here so they always agree.
func Select(snap *Snapshot, c Criteria) []scanner.Item {
	if snap == nil {
		return nil
	}
	out := make([]scanner.Item, 0, len(snap.items))
	for i := range snap.items {
		if c.Matches(&snap.items[i]) {
			out = append(out, snap.items[i])
		}
	}
	return out
}

func containsCategory(set []scanner.Category, c scanner.Category) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}
