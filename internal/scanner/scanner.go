package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const (
	// DefaultLargestFiles is how many of the biggest files each item keeps
	DefaultLargestFiles = 10

	// DefaultStaleThresholdDays marks an item stale after this many idle days
	DefaultStaleThresholdDays = 30
)

// FSFunc opens the filesystem rooted at a location's directory
type FSFunc func(root string) fs.FS

// Scanner measures a single location in one pass over its tree.
// It holds no per-scan state and may be shared between goroutines.
type Scanner struct {
	largestFiles int
	staleDays    int
	now          func() time.Time
	openFS       FSFunc
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLargestFiles sets how many of the largest files are reported per item
func WithLargestFiles(n int) Option {
	return func(s *Scanner) {
		if n >= 0 {
			s.largestFiles = n
		}
	}
}

// WithStaleThreshold sets the age in days after which an item is stale
func WithStaleThreshold(days int) Option {
	return func(s *Scanner) {
		if days > 0 {
			s.staleDays = days
		}
	}
}

// WithClock overrides the time source used for ages
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFS overrides how a directory tree is opened
func WithFS(open FSFunc) Option {
	return func(s *Scanner) {
		if open != nil {
			s.openFS = open
		}
	}
}

// New creates a new Scanner
func New(opts ...Option) *Scanner {
	s := &Scanner{
		largestFiles: DefaultLargestFiles,
		staleDays:    DefaultStaleThresholdDays,
		now:          time.Now,
		openFS:       os.DirFS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StaleThresholdDays returns the threshold applied to scanned items
func (s *Scanner) StaleThresholdDays() int {
	return s.staleDays
}

// Scan walks loc and returns its measured item.
//
// An absent root yields ErrLocationAbsent. Unreadable paths below the root
// are recorded on the item as a partial failure and the walk continues; an
// unreadable root yields an item with zero metadata and a total failure.
// Symbolic links inside the tree are counted but never followed.
func (s *Scanner) Scan(loc Location) (Item, error) {
	if loc.Path == "" || !filepath.IsAbs(loc.Path) {
		return Item{}, fmt.Errorf("%w: path %q must be absolute", ErrInvalidLocation, loc.Path)
	}
	root := filepath.Clean(loc.Path)
	loc.Path = root

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Item{}, fmt.Errorf("%s: %w", root, ErrLocationAbsent)
		}
		w := s.newWalk(loc)
		w.fail(root, err)
		return w.finish(nil, true), nil
	}

	w := s.newWalk(loc)
	if !info.IsDir() {
		w.item.IsDir = false
		w.addFile(root, info)
		return w.finish(info, false), nil
	}

	w.item.IsDir = true
	rootFailed := false
	walkErr := fs.WalkDir(s.openFS(root), ".", func(p string, d fs.DirEntry, err error) error {
		full := root
		if p != "." {
			full = filepath.Join(root, filepath.FromSlash(p))
		}
		if err != nil {
			if p == "." {
				rootFailed = true
				w.fail(full, err)
				return fs.SkipAll
			}
			w.fail(full, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			w.item.DirCount++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			w.fail(full, err)
			return nil
		}
		w.addFile(full, fi)
		return nil
	})
	if walkErr != nil {
		w.fail(root, walkErr)
	}

	return w.finish(info, rootFailed), nil
}

// walk accumulates the figures of one scan
type walk struct {
	item     Item
	top      *topFiles
	accessed time.Time
	modified time.Time
	now      time.Time
}

func (s *Scanner) newWalk(loc Location) *walk {
	return &walk{
		item: Item{
			Path:               loc.Path,
			Name:               loc.Name,
			Category:           loc.Category,
			RiskLevel:          loc.Risk(),
			Description:        loc.Description,
			ContentsOnly:       loc.ContentsOnly,
			RequiresAdmin:      loc.RequiresAdmin,
			StaleThresholdDays: s.staleDays,
			FileTypes:          make(map[string]TypeStats),
		},
		top: newTopFiles(s.largestFiles),
		now: s.now(),
	}
}

func (w *walk) addFile(full string, info fs.FileInfo) {
	size := info.Size()
	if size < 0 {
		size = 0
	}
	w.item.FileCount++
	w.item.SizeBytes += size

	key := extensionKey(info.Name())
	ts := w.item.FileTypes[key]
	ts.Count++
	ts.SizeBytes += size
	w.item.FileTypes[key] = ts

	w.top.Offer(FileEntry{Path: full, SizeBytes: size})

	if t := lastAccess(info); t.After(w.accessed) {
		w.accessed = t
	}
	if t := info.ModTime(); t.After(w.modified) {
		w.modified = t
	}
}

func (w *walk) fail(full string, err error) {
	if w.item.ScanError == nil {
		w.item.ScanError = &ScanError{
			Kind:    ScanPartialFailure,
			Reason:  classify(err),
			Path:    full,
			Message: errorMessage(err),
		}
	}
	w.item.ScanError.Count++
}

// finish settles ages and ordering. A failed root discards everything
// gathered so the item carries zero metadata.
func (w *walk) finish(rootInfo fs.FileInfo, rootFailed bool) Item {
	if rootFailed || rootInfo == nil {
		w.item.ScanError.Kind = ScanTotalFailure
		w.item.SizeBytes = 0
		w.item.FileCount = 0
		w.item.DirCount = 0
		w.item.FileTypes = make(map[string]TypeStats)
		w.item.LargestFiles = []FileEntry{}
		return w.item
	}

	if w.item.FileCount == 0 {
		w.accessed = lastAccess(rootInfo)
		w.modified = rootInfo.ModTime()
	}
	w.item.LastAccessed = w.accessed
	w.item.LastModified = w.modified
	w.item.AgeDays = ageDays(w.now, w.accessed)
	w.item.IsStale = w.item.IsStaleAt(w.item.StaleThresholdDays)
	w.item.LargestFiles = w.top.Sorted()
	return w.item
}

// lastAccess prefers access time, falling back to modification time when
// access tracking looks disabled and to change or birth time after that.
func lastAccess(info fs.FileInfo) time.Time {
	atime, mtime, ctime := fileTimes(info)
	switch {
	case isSet(atime) && !atime.Before(mtime):
		return atime
	case isSet(mtime):
		return mtime
	case isSet(atime):
		return atime
	default:
		return ctime
	}
}

func isSet(t time.Time) bool {
	return !t.IsZero() && t.Unix() > 0
}

func ageDays(now, last time.Time) int {
	if !isSet(last) || last.After(now) {
		return 0
	}
	return int(now.Sub(last) / (24 * time.Hour))
}

func extensionKey(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == name || ext == "." {
		return NoExtensionKey
	}
	return strings.ToLower(ext)
}

func classify(err error) FailureReason {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ReasonVanished
	case errors.Is(err, syscall.ELOOP):
		return ReasonSymlinkLoop
	default:
		return ReasonIOError
	}
}

func errorMessage(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
