package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/fenilsonani/cachescope/internal/analyzer"
)

// DiskUsage reports usage of the volume holding path
func DiskUsage(path string) (analyzer.DiskUsage, error) {
	return DiskUsageWithContext(context.Background(), path)
}

// DiskUsageWithContext reports usage of the volume holding path. The mount
// point is looked up best effort and left empty when partitions cannot be
// listed.
func DiskUsageWithContext(ctx context.Context, path string) (analyzer.DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return analyzer.DiskUsage{}, fmt.Errorf("disk usage of %s: %w", path, err)
	}

	du := analyzer.DiskUsage{
		Path:        path,
		Fstype:      usage.Fstype,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err == nil {
		mounts := make([]string, 0, len(parts))
		for _, p := range parts {
			mounts = append(mounts, p.Mountpoint)
		}
		du.MountPoint = mountPointFor(path, mounts)
	}
	return du, nil
}

// DiskPaths returns the paths whose volume is reported, most specific first
func DiskPaths(info *Info) []string {
	if info == nil {
		return nil
	}
	if info.OS == Windows {
		return []string{info.HomeDir, windowsRoot}
	}
	return []string{info.HomeDir, "/"}
}

// mountPointFor returns the longest mount point containing path
func mountPointFor(path string, mounts []string) string {
	best := ""
	for _, m := range mounts {
		if m == "" || !within(path, m) {
			continue
		}
		if len(m) > len(best) {
			best = m
		}
	}
	return best
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
