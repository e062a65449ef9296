package cleaner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// BackupSink preserves an item before it is deleted and returns where the
// copy was written. An error must leave the item untouched.
type BackupSink interface {
	Backup(ctx context.Context, item scanner.Item) (string, error)
}

// DirectoryBackup copies items into a per-run directory under Root:
// <Root>/<run id>/<NN>-<name>/. Symlinks are recreated, never followed.
type DirectoryBackup struct {
	Root   string
	Verify bool

	mu    sync.Mutex
	runID string
	seq   int
}

// NewDirectoryBackup creates a sink writing below root
func NewDirectoryBackup(root string) *DirectoryBackup {
	return &DirectoryBackup{
		Root:  root,
		runID: time.Now().Format("20060102-150405") + "-" + uuid.NewString()[:8],
	}
}

// RunDir returns the directory holding this run's copies
func (b *DirectoryBackup) RunDir() string {
	return filepath.Join(b.Root, b.runID)
}

func (b *DirectoryBackup) next(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return filepath.Join(b.RunDir(), fmt.Sprintf("%02d-%s", b.seq, sanitizeName(name)))
}

// Backup copies the item's tree. A root that is a symlink to a directory is
// copied through, matching how it was scanned.
func (b *DirectoryBackup) Backup(ctx context.Context, item scanner.Item) (string, error) {
	if b.Root == "" {
		return "", fmt.Errorf("backup root not set")
	}
	dest := b.next(item.Name)

	info, err := os.Stat(item.Path)
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", item.Path, err)
	}

	if err := os.MkdirAll(dest, 0700); err != nil {
		return "", fmt.Errorf("backup %s: %w", item.Path, err)
	}

	if info.IsDir() {
		err = b.copyTree(ctx, item.Path, dest)
	} else {
		err = b.copyFile(item.Path, filepath.Join(dest, filepath.Base(item.Path)), info.Mode())
	}
	if err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("backup %s: %w", item.Path, err)
	}
	return dest, nil
}

func (b *DirectoryBackup) copyTree(ctx context.Context, src, dest string) error {
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			if rel == "." {
				return nil
			}
			return os.MkdirAll(target, 0700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return b.copyFile(p, target, info.Mode())
		default:
			// sockets, pipes and devices hold no data worth keeping
			return nil
		}
	})
}

func (b *DirectoryBackup) copyFile(src, dest string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if b.Verify {
		same, err := utils.SameContent(src, dest)
		if err != nil {
			return err
		}
		if !same {
			return fmt.Errorf("verification failed for %s", src)
		}
	}
	return nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "item"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
