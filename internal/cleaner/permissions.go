package cleaner

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
)

// Elevated reports whether the process runs as root
func Elevated() bool {
	currentUser, err := user.Current()
	return err == nil && currentUser.Uid == "0"
}

// IsSpecialFile checks if a path is a special file (device, socket, pipe),
// following symlink chains up to a fixed depth
func IsSpecialFile(path string) (bool, error) {
	return isSpecialFile(path, 0)
}

func isSpecialFile(path string, depth int) (bool, error) {
	if depth > 16 {
		return false, fmt.Errorf("too many levels of symbolic links")
	}

	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}

	mode := info.Mode()

	switch {
	case mode&os.ModeCharDevice != 0:
		return true, fmt.Errorf("is a character device")
	case mode&os.ModeDevice != 0:
		return true, fmt.Errorf("is a device file")
	case mode&os.ModeSocket != 0:
		return true, fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return true, fmt.Errorf("is a named pipe (FIFO)")
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return false, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		return isSpecialFile(target, depth+1)
	}

	return false, nil
}

// IsSafeToDelete refuses special files and paths that no longer exist
func IsSafeToDelete(path string) error {
	if isSpecial, err := IsSpecialFile(path); isSpecial {
		return fmt.Errorf("%w: %v", ErrSpecialFile, err)
	}

	if _, err := os.Lstat(path); err != nil {
		return err
	}

	return nil
}
