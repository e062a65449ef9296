package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/cachescope/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress while building an inventory
type ScanProgress struct {
	Phase          Phase
	Location       string
	CurrentPath    string
	LocationsTotal int
	LocationsDone  int
	FilesFound     int
	TotalSize      int64
	StartTime      time.Time
	Error          error
}

// CleanProgress represents progress while clearing items
type CleanProgress struct {
	Phase       Phase
	CurrentItem string
	ItemsDone   int
	ItemsTotal  int
	FreedBytes  int64
	TotalBytes  int64
	Skipped     int
	Failed      int
	DryRun      bool
	StartTime   time.Time
	Error       error
}

// Reporter provides thread-safe progress fan-out to subscribers
type Reporter struct {
	scanProgress  *ScanProgress
	cleanProgress *CleanProgress
	mu            sync.RWMutex
	listeners     []chan any
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan any, 0),
	}
}

// Subscribe returns a channel that receives *ScanProgress and *CleanProgress updates
func (pr *Reporter) Subscribe() <-chan any {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan any, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *Reporter) Unsubscribe(ch <-chan any) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScan stores scan progress and notifies listeners
func (pr *Reporter) UpdateScan(update *ScanProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	pr.scanProgress = update
	pr.mu.Unlock()
	pr.broadcast(update)
}

// UpdateClean stores clean progress and notifies listeners
func (pr *Reporter) UpdateClean(update *CleanProgress) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	pr.cleanProgress = update
	pr.mu.Unlock()
	pr.broadcast(update)
}

// broadcast never blocks: a full listener misses the update.
// The read lock keeps Unsubscribe from closing a channel mid-send.
func (pr *Reporter) broadcast(update any) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	for _, listener := range pr.listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// Scan returns the latest scan progress
func (pr *Reporter) Scan() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.scanProgress
}

// Clean returns the latest clean progress
func (pr *Reporter) Clean() *CleanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.cleanProgress
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning %s (%d/%d)... %d files (%s) [%s]",
			p.Location,
			p.LocationsDone,
			p.LocationsTotal,
			p.FilesFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d locations, %d files (%s) in %s",
			p.LocationsDone,
			p.FilesFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatCleanProgress returns a human-readable clean progress string
func FormatCleanProgress(p *CleanProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)
	verb := "freed"
	if p.DryRun {
		verb = "would be freed"
	}

	switch p.Phase {
	case PhaseCleaning:
		percentage := 0
		if p.ItemsTotal > 0 {
			percentage = (p.ItemsDone * 100) / p.ItemsTotal
		}

		return fmt.Sprintf("Cleaning %s... %d/%d items (%d%%) - %s %s",
			p.CurrentItem,
			p.ItemsDone,
			p.ItemsTotal,
			percentage,
			utils.FormatBytes(p.FreedBytes),
			verb)
	case PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %d items, %s %s, %d skipped, %d failed in %s",
			p.ItemsDone,
			utils.FormatBytes(p.FreedBytes),
			verb,
			p.Skipped,
			p.Failed,
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", p.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
