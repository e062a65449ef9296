// Package testutil provides fixtures for cachescope tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestFixture holds a temporary tree that stands in for a user's home
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)
}

// NewFixture creates a new empty fixture
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()
	return &TestFixture{T: t, RootDir: t.TempDir()}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSizedFile creates a zero-filled file of the given size
func (f *TestFixture) CreateSizedFile(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, make([]byte, size))
}

// CreateFileWithAge creates a file and moves both its access and
// modification times into the past
func (f *TestFixture) CreateFileWithAge(relPath string, size int, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateSizedFile(relPath, size)
	f.SetAge(fullPath, age)
	return fullPath
}

// SetAge moves the access and modification times of path into the past
func (f *TestFixture) SetAge(fullPath string, age time.Duration) {
	f.T.Helper()

	oldTime := time.Now().Add(-age)
	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}
}

// CreateFiles creates count files of size bytes each under relDir
func (f *TestFixture) CreateFiles(relDir string, count, size int) []string {
	f.T.Helper()

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		paths = append(paths, f.CreateSizedFile(filepath.Join(relDir, fmt.Sprintf("file%02d.bin", i)), size))
	}
	return paths
}

// =============================================================================
// Directory Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateUnreadableDir creates a directory holding one file and then removes
// all permissions from it. Permissions are restored on cleanup.
func (f *TestFixture) CreateUnreadableDir(relPath string) string {
	f.T.Helper()

	dirPath := f.CreateDir(relPath)
	f.CreateFile(filepath.Join(relPath, "hidden.txt"), []byte("hidden"))
	if err := os.Chmod(dirPath, 0000); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// =============================================================================
// Symlink Helpers
// =============================================================================

// CreateSymlink creates a symbolic link
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := filepath.Join(f.RootDir, linkPath)
	dir := filepath.Dir(fullLinkPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// Exists reports whether path exists without following a final symlink
func (f *TestFixture) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// =============================================================================
// Environment Helpers
// =============================================================================

// SkipIfRoot skips tests that rely on permission denial
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}
}

// SkipOnWindows skips tests that need POSIX symlinks
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
}

// =============================================================================
// Fault Injection
// =============================================================================

// FaultyFS wraps a filesystem and fails ReadDir for the listed directories
// with a permission error. Directory names use slash separated paths
// relative to the filesystem root, "." being the root itself.
type FaultyFS struct {
	fs.FS
	Denied map[string]bool
}

// NewFaultyFS returns a function suitable for opening a directory tree with
// the given directories made unreadable
func NewFaultyFS(denied ...string) func(root string) fs.FS {
	set := make(map[string]bool, len(denied))
	for _, d := range denied {
		set[path.Clean(d)] = true
	}
	return func(root string) fs.FS {
		return &FaultyFS{FS: os.DirFS(root), Denied: set}
	}
}

// ReadDir implements fs.ReadDirFS
func (f *FaultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if f.Denied[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return fs.ReadDir(f.FS, name)
}
