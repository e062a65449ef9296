// Package utils holds layout helpers for terminal views.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/cachescope/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

const ellipsis = "..."

// TruncatePath shortens path to maxWidth bytes. It keeps the leading
// directory and as many trailing components as fit, so "/home/u/a/b/c/file"
// becomes "/home/.../c/file".
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return ellipsis
	}

	sep := string(filepath.Separator)
	parts := strings.Split(path, sep)
	if len(parts) < 3 {
		return ellipsis + path[len(path)-(maxWidth-len(ellipsis)):]
	}

	head := parts[0]
	if head == "" {
		head = sep + parts[1]
		parts = parts[1:]
	}

	tail := parts[len(parts)-1]
	if len(head)+len(sep)+len(ellipsis)+len(sep)+len(tail) > maxWidth {
		if len(tail)+len(ellipsis) > maxWidth {
			return ellipsis + tail[len(tail)-(maxWidth-len(ellipsis)):]
		}
		return ellipsis + tail
	}

	for i := len(parts) - 2; i > 0; i-- {
		next := parts[i] + sep + tail
		if len(head)+len(sep)+len(ellipsis)+len(sep)+len(next) > maxWidth {
			break
		}
		tail = next
	}
	return head + sep + ellipsis + sep + tail
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < len(ellipsis) {
		return ellipsis
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// TruncateMiddle keeps the start and end of s
func TruncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 10 {
		return TruncateString(s, maxLen)
	}

	side := (maxLen - len(ellipsis)) / 2
	return s[:side] + ellipsis + s[len(s)-side:]
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning line when the terminal is too small.
// Unknown sizes (zero) never warn.
func GetSizeWarningBanner(width, height int) string {
	if width == 0 || height == 0 || !IsTerminalTooSmall(width, height) {
		return ""
	}

	return styles.WarningStyle.Render("Terminal too small, prompts may wrap.") +
		styles.DimStyle.Render(fmt.Sprintf(" (current %dx%d, recommended %dx%d)", width, height, MinTerminalWidth, MinTerminalHeight)) +
		"\n\n"
}
