package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

var (
	// ErrInvalidMode is returned for an unknown cleaning mode
	ErrInvalidMode = errors.New("invalid cleaning mode")

	// ErrNoConfirmer is returned when interactive mode has no way to ask
	ErrNoConfirmer = errors.New("interactive mode requires a confirmer")

	// ErrNoBackupSink is returned when a backup is requested without a sink
	ErrNoBackupSink = errors.New("backup requested but no backup sink configured")

	// ErrConfirmation is returned, with the summary, when the confirmer fails
	ErrConfirmation = errors.New("confirmation failed")

	// ErrSpecialFile refuses device, socket and pipe roots
	ErrSpecialFile = errors.New("refusing to delete special file")

	// ErrNeedsElevation is returned for admin-only locations when not elevated
	ErrNeedsElevation = errors.New("location requires administrator privileges")
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// MarshalText implements encoding.TextMarshaler
func (e ErrorReason) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(e.String())), nil
}

// DeletionError represents a detailed deletion error
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
	NeedsSudo bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap returns the underlying error
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		if e.NeedsSudo {
			return fmt.Sprintf("Need elevated permissions to delete: %s", e.Path)
		}
		return fmt.Sprintf("Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("Files are being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("Removed by something else before deletion: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("Cannot delete directory: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Invalid or unsafe path: %s (%v)", e.Path, e.Original)
	default:
		return fmt.Sprintf("Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	var existing *DeletionError
	if errors.As(err, &existing) {
		return existing
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	switch {
	case errors.Is(err, ErrNeedsElevation):
		delErr.Reason = ErrorPermissionDenied
		delErr.NeedsSudo = true
		return delErr
	case errors.Is(err, ErrSpecialFile):
		delErr.Reason = ErrorInvalidPath
		return delErr
	case errors.Is(err, fs.ErrNotExist):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case errors.Is(err, fs.ErrPermission):
		delErr.Reason = ErrorPermissionDenied
		delErr.NeedsSudo = true
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
			delErr.NeedsSudo = true
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EISDIR:
			delErr.Reason = ErrorIsDirectory
		}
	}

	return delErr
}

// FailureKind tells which step of an item's cleanup failed
type FailureKind string

const (
	FailureBackup    FailureKind = "backup"
	FailureDelete    FailureKind = "delete"
	FailureProtected FailureKind = "protected"
)

// Failure records why one item ended FAILED
type Failure struct {
	Path      string      `json:"path" yaml:"path"`
	Name      string      `json:"name" yaml:"name"`
	Kind      FailureKind `json:"kind" yaml:"kind"`
	Reason    ErrorReason `json:"reason" yaml:"reason"`
	Message   string      `json:"message" yaml:"message"`
	NeedsSudo bool        `json:"needs_sudo,omitempty" yaml:"needs_sudo,omitempty"`
}

// GroupFailures groups failures by kind
func GroupFailures(failures []Failure) map[FailureKind][]Failure {
	grouped := make(map[FailureKind][]Failure)
	for _, f := range failures {
		grouped[f.Kind] = append(grouped[f.Kind], f)
	}
	return grouped
}

// FormatFailureSummary creates a user-friendly summary of failures
func FormatFailureSummary(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}

	grouped := GroupFailures(failures)
	var b strings.Builder
	b.WriteString("\nIssues encountered:\n")

	if backups, ok := grouped[FailureBackup]; ok {
		fmt.Fprintf(&b, "   ├─ Backup failed: %d items (left untouched)\n", len(backups))
	}
	if protected, ok := grouped[FailureProtected]; ok {
		fmt.Fprintf(&b, "   ├─ Protected paths refused: %d items\n", len(protected))
	}

	var perms, busy, other int
	for _, f := range grouped[FailureDelete] {
		switch f.Reason {
		case ErrorPermissionDenied:
			perms++
		case ErrorFileInUse:
			busy++
		default:
			other++
		}
	}
	if perms > 0 {
		fmt.Fprintf(&b, "   ├─ Permission denied: %d items\n", perms)
		b.WriteString("   │  └─ Tip: Run with elevated permissions\n")
	}
	if busy > 0 {
		fmt.Fprintf(&b, "   ├─ In use: %d items\n", busy)
		b.WriteString("   │  └─ Tip: Close applications and retry\n")
	}
	if other > 0 {
		fmt.Fprintf(&b, "   └─ Other errors: %d items\n", other)
	}

	return b.String()
}
