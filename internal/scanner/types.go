package scanner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category classifies a storage location
type Category string

const (
	CategoryUserCache   Category = "user_cache"
	CategorySystemCache Category = "system_cache"
	CategoryBrowser     Category = "browser"
	CategoryDevelopment Category = "development"
	CategoryLogs        Category = "logs"
	CategoryTrash       Category = "trash"
	CategoryDownloads   Category = "downloads"
	CategoryApplication Category = "application"
	CategoryContainer   Category = "container"
	CategoryCustom      Category = "custom"
)

// AllCategories returns every known category in display order
func AllCategories() []Category {
	return []Category{
		CategoryUserCache,
		CategorySystemCache,
		CategoryBrowser,
		CategoryDevelopment,
		CategoryLogs,
		CategoryTrash,
		CategoryDownloads,
		CategoryApplication,
		CategoryContainer,
		CategoryCustom,
	}
}

// ParseCategory converts a user supplied name into a Category.
// Dashes and underscores are interchangeable and case is ignored.
func ParseCategory(s string) (Category, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch norm {
	case "system":
		return CategorySystemCache, nil
	case "cache":
		return CategoryUserCache, nil
	}
	for _, c := range AllCategories() {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// RiskLevel is an ordered assessment of how safe a location is to clear.
// The zero value means unset.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota + 1
	RiskModerate
	RiskCaution
)

// String returns the lowercase name of the risk level
func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskModerate:
		return "moderate"
	case RiskCaution:
		return "caution"
	case 0:
		return "unset"
	default:
		return fmt.Sprintf("risk(%d)", int(r))
	}
}

// ParseRiskLevel converts a name into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return RiskSafe, nil
	case "moderate":
		return RiskModerate, nil
	case "caution":
		return RiskCaution, nil
	case "", "unset":
		return 0, nil
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

// AtMost reports whether r does not exceed max. An unset max allows everything.
func (r RiskLevel) AtMost(max RiskLevel) bool {
	if max == 0 {
		return true
	}
	return r.normalize() <= max
}

func (r RiskLevel) normalize() RiskLevel {
	if r == 0 {
		return RiskSafe
	}
	return r
}

// MarshalText implements encoding.TextMarshaler
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// Location describes a well-known storage location that may be inventoried
// and cleared.
type Location struct {
	Path        string    `json:"path" yaml:"path" toml:"path"`
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Category    Category  `json:"category" yaml:"category" toml:"category"`
	RiskLevel   RiskLevel `json:"risk_level" yaml:"risk_level" toml:"risk_level"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// ContentsOnly empties the directory on clean but keeps the directory itself.
	ContentsOnly  bool   `json:"contents_only,omitempty" yaml:"contents_only,omitempty" toml:"contents_only,omitempty"`
	RequiresAdmin bool   `json:"requires_admin,omitempty" yaml:"requires_admin,omitempty" toml:"requires_admin,omitempty"`
	AppName       string `json:"app_name,omitempty" yaml:"app_name,omitempty" toml:"app_name,omitempty"`
}

// Risk returns the location's risk level, treating unset as safe
func (l Location) Risk() RiskLevel {
	return l.RiskLevel.normalize()
}

// NoExtensionKey is the file type breakdown key for files without an extension
const NoExtensionKey = "(no extension)"

// TypeStats aggregates files sharing an extension
type TypeStats struct {
	Count     int   `json:"count" yaml:"count"`
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`
}

// FileEntry is a single file reported in the largest files list
type FileEntry struct {
	Path      string `json:"path" yaml:"path"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}

// ScanErrorKind tells whether a location was scanned partially or not at all
type ScanErrorKind string

const (
	ScanPartialFailure ScanErrorKind = "partial"
	ScanTotalFailure   ScanErrorKind = "total"
)

// FailureReason categorizes why a path could not be read
type FailureReason string

const (
	ReasonPermissionDenied FailureReason = "permission_denied"
	ReasonVanished         FailureReason = "vanished"
	ReasonSymlinkLoop      FailureReason = "symlink_loop"
	ReasonIOError          FailureReason = "io_error"
)

// ScanError records the failures met while walking a location. Path and
// Reason describe the first failure; Count is the total.
type ScanError struct {
	Kind    ScanErrorKind `json:"kind" yaml:"kind"`
	Reason  FailureReason `json:"reason" yaml:"reason"`
	Path    string        `json:"path" yaml:"path"`
	Count   int           `json:"count" yaml:"count"`
	Message string        `json:"message" yaml:"message"`
}

func (e *ScanError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("%s scan failure at %s: %s (and %d more)", e.Kind, e.Path, e.Message, e.Count-1)
	}
	return fmt.Sprintf("%s scan failure at %s: %s", e.Kind, e.Path, e.Message)
}

var (
	// ErrLocationAbsent is returned when a location's root does not exist.
	// It is not a failure.
	ErrLocationAbsent = errors.New("location absent")

	// ErrInvalidLocation is returned for descriptors that cannot be scanned
	ErrInvalidLocation = errors.New("invalid location")
)

// Item is the measured state of one location at scan time
type Item struct {
	Path               string               `json:"path" yaml:"path"`
	Name               string               `json:"name" yaml:"name"`
	Category           Category             `json:"category" yaml:"category"`
	RiskLevel          RiskLevel            `json:"risk_level" yaml:"risk_level"`
	Description        string               `json:"description,omitempty" yaml:"description,omitempty"`
	ContentsOnly       bool                 `json:"contents_only,omitempty" yaml:"contents_only,omitempty"`
	RequiresAdmin      bool                 `json:"requires_admin,omitempty" yaml:"requires_admin,omitempty"`
	IsDir              bool                 `json:"is_dir" yaml:"is_dir"`
	SizeBytes          int64                `json:"size_bytes" yaml:"size_bytes"`
	FileCount          int                  `json:"file_count" yaml:"file_count"`
	DirCount           int                  `json:"dir_count" yaml:"dir_count"`
	LastAccessed       time.Time            `json:"last_accessed" yaml:"last_accessed"`
	LastModified       time.Time            `json:"last_modified" yaml:"last_modified"`
	AgeDays            int                  `json:"age_days" yaml:"age_days"`
	IsStale            bool                 `json:"is_stale" yaml:"is_stale"`
	StaleThresholdDays int                  `json:"stale_threshold_days" yaml:"stale_threshold_days"`
	FileTypes          map[string]TypeStats `json:"file_types" yaml:"file_types"`
	LargestFiles       []FileEntry          `json:"largest_files" yaml:"largest_files"`
	ScanError          *ScanError           `json:"scan_error,omitempty" yaml:"scan_error,omitempty"`
}

// IsStaleAt reports whether the item is stale for the given threshold in days
func (i *Item) IsStaleAt(days int) bool {
	return i.AgeDays >= days
}

// Failed reports whether any part of the location could not be read
func (i *Item) Failed() bool {
	return i.ScanError != nil
}

// Location returns the descriptor the item was scanned from
func (i *Item) Location() Location {
	return Location{
		Path:          i.Path,
		Name:          i.Name,
		Category:      i.Category,
		RiskLevel:     i.RiskLevel,
		Description:   i.Description,
		ContentsOnly:  i.ContentsOnly,
		RequiresAdmin: i.RequiresAdmin,
	}
}
