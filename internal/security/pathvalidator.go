// Package security guards deletions against system and user-critical paths.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PathValidator refuses deletions of protected paths. Protected trees are
// refused at the root and one level below it; protected paths are refused
// only on exact match.
type PathValidator struct {
	protectedTrees []string
	protectedPaths []string
}

// NewPathValidator creates a new PathValidator with the system directories
// of the running OS protected
func NewPathValidator() *PathValidator {
	trees, exact := systemPaths(runtime.GOOS)
	return &PathValidator{protectedTrees: trees, protectedPaths: exact}
}

func systemPaths(goos string) (trees, exact []string) {
	if goos == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		root := drive + `\`
		trees = []string{
			root,
			filepath.Join(root, "Windows", "System32"),
			filepath.Join(root, "Program Files"),
			filepath.Join(root, "Program Files (x86)"),
			filepath.Join(root, "ProgramData"),
			filepath.Join(root, "Users"),
		}
		return trees, []string{filepath.Join(root, "Windows")}
	}
	return []string{
		// Unix system directories
		"/",
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/lib64",
		"/proc",
		"/sbin",
		"/sys",
		"/usr",
		"/var",
		// macOS system directories
		"/System",
		"/Applications",
		"/Library/System",
		"/Users",
		"/home",
	}, nil
}

// ValidatePathForDeletion performs every check a path must pass before it
// is deleted
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	// Resolve symlinks so ~/cache -> /etc cannot slip through
	resolvedPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		resolvedPath = path
	}
	cleanPath := filepath.Clean(resolvedPath)

	dangerousChars := []string{";", "|", "$", "`", "<", ">", "\n", "\r", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) || strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous characters: %q", path)
		}
	}

	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}
	if cleanPath != path {
		return pv.checkProtectedPaths(cleanPath)
	}
	return nil
}

// checkProtectedPaths validates that a path is not a protected location
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if samePath(cleanPath, protected) {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}
	}

	for _, protected := range pv.protectedTrees {
		if samePath(cleanPath, protected) {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}

		if isVolumeRoot(protected) {
			continue
		}
		rel, err := filepath.Rel(protected, cleanPath)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if !strings.ContainsRune(rel, filepath.Separator) {
			return fmt.Errorf("refusing to delete critical system path: %s", cleanPath)
		}
	}

	return nil
}

// IsProtectedPath reports whether path is protected or lies inside a
// protected tree other than the filesystem root
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if samePath(cleanPath, protected) {
			return true
		}
	}
	for _, protected := range pv.protectedTrees {
		if samePath(cleanPath, protected) {
			return true
		}
		if isVolumeRoot(protected) {
			continue
		}
		rel, err := filepath.Rel(protected, cleanPath)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// AddProtectedPath protects path itself, leaving its contents deletable
func (pv *PathValidator) AddProtectedPath(path string) {
	if path == "" {
		return
	}
	pv.protectedPaths = append(pv.protectedPaths, filepath.Clean(path))
}

// AddProtectedTree protects path and everything directly inside it
func (pv *PathValidator) AddProtectedTree(path string) {
	if path == "" {
		return
	}
	pv.protectedTrees = append(pv.protectedTrees, filepath.Clean(path))
}

// ValidateGlobPattern validates that a glob pattern is safe
func ValidateGlobPattern(pattern string) error {
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	if _, err := filepath.Match(pattern, "test"); err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func isVolumeRoot(p string) bool {
	return filepath.Dir(p) == p
}
