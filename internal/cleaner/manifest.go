package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// DeletionManifest records every item removed during a run
type DeletionManifest struct {
	mu        sync.Mutex
	Entries   []ManifestEntry
	Timestamp time.Time
	TotalSize int64
}

// ManifestEntry represents one deleted item
type ManifestEntry struct {
	Path       string
	Size       int64
	Category   scanner.Category
	BackupPath string
	DeletedAt  time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{
		Entries:   []ManifestEntry{},
		Timestamp: time.Now(),
	}
}

// Add appends a deleted item to the manifest
func (m *DeletionManifest) Add(path string, size int64, category scanner.Category, backupPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Entries = append(m.Entries, ManifestEntry{
		Path:       path,
		Size:       size,
		Category:   category,
		BackupPath: backupPath,
		DeletedAt:  time.Now(),
	})
	m.TotalSize += size
}

// Len returns the number of recorded deletions
func (m *DeletionManifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

// Save writes the manifest as text to path, creating parent directories
func (m *DeletionManifest) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Items: %d\n\n", len(m.Entries))

	for _, e := range m.Entries {
		backup := "-"
		if e.BackupPath != "" {
			backup = e.BackupPath
		}
		fmt.Fprintf(file, "%s | %d bytes | %s | %s | backup: %s\n",
			e.Path, e.Size, e.Category, e.DeletedAt.Format(time.RFC3339), backup)
	}

	return file.Sync()
}
