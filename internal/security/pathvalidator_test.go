package security

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePathForDeletion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	pv := NewPathValidator()
	tmp := t.TempDir()

	tests := []struct {
		name        string
		path        string
		shouldError bool
		errorMsg    string
	}{
		{"temp file - valid", filepath.Join(tmp, "cache", "file.txt"), false, ""},
		{"home cache - valid", "/home/alice/.cache/pip", false, ""},
		{"relative path - invalid", "relative/path.txt", true, "path must be absolute"},
		{"empty path - invalid", "", true, "path must be absolute"},
		{"unclean path - invalid", "/home/alice/.cache/../../etc", true, "suspicious elements"},
		{"newline - invalid", "/home/alice/.cache/x\nrm", true, "dangerous characters"},
		{"root directory - protected", "/", true, "protected path"},
		{"/bin directory - protected", "/bin", true, "refusing to delete protected path"},
		{"/etc direct child - protected", "/etc/newfile", true, "critical system path"},
		{"/usr one level - protected", "/usr/newdir", true, "critical system path"},
		{"home directory - protected", "/home/alice", true, "critical system path"},
		{"/usr deeper - allowed", "/usr/local/share/cache-dir", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidatePathForDeletion_SymlinkIntoProtected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	pv := NewPathValidator()

	link := filepath.Join(t.TempDir(), "sneaky")
	if err := os.Symlink("/etc", link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	err := pv.ValidatePathForDeletion(link)
	if err == nil {
		t.Fatal("Expected symlink to /etc to be refused")
	}
}

func TestAddProtectedPath(t *testing.T) {
	pv := NewPathValidator()
	home := t.TempDir()
	pv.AddProtectedPath(home)

	if err := pv.ValidatePathForDeletion(home); err == nil {
		t.Error("Expected protected path to be refused")
	}
	if err := pv.ValidatePathForDeletion(filepath.Join(home, "Downloads")); err != nil {
		t.Errorf("Expected child of exact protected path to be allowed, got: %v", err)
	}

	tree := filepath.Join(home, "projects")
	pv.AddProtectedTree(tree)
	if err := pv.ValidatePathForDeletion(filepath.Join(tree, "app")); err == nil {
		t.Error("Expected direct child of protected tree to be refused")
	}
	if err := pv.ValidatePathForDeletion(filepath.Join(tree, "app", "build")); err != nil {
		t.Errorf("Expected deeper path to be allowed, got: %v", err)
	}
}

func TestIsProtectedPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	pv := NewPathValidator()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", true},
		{"/etc", true},
		{"/etc/passwd", true},
		{"/usr/local/bin", true},
		{"/tmp/cache", false},
		{"/opt/app/cache", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := pv.IsProtectedPath(tt.path); got != tt.expected {
				t.Errorf("IsProtectedPath(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		pattern     string
		shouldError bool
	}{
		{"*.log", false},
		{"cache-*", false},
		{"../*.txt", true},
		{"[", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := ValidateGlobPattern(tt.pattern)
			if tt.shouldError && err == nil {
				t.Errorf("Expected error for pattern %q", tt.pattern)
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error for pattern %q: %v", tt.pattern, err)
			}
		})
	}
}
