package platform

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_LinuxXDG(t *testing.T) {
	home := filepath.FromSlash("/home/alice")

	info := Resolve(Linux, home, nil)
	assert.Equal(t, filepath.Join(home, ".cache"), info.CacheHome)
	assert.Equal(t, filepath.Join(home, ".config"), info.ConfigHome)
	assert.Equal(t, filepath.Join(home, ".local", "share"), info.DataHome)

	custom := filepath.FromSlash("/data/cache")
	info = Resolve(Linux, home, envMap(map[string]string{
		"XDG_CACHE_HOME":  custom,
		"XDG_CONFIG_HOME": "relative/ignored",
	}))
	if runtime.GOOS != "windows" {
		assert.Equal(t, custom, info.CacheHome)
	}
	assert.Equal(t, filepath.Join(home, ".config"), info.ConfigHome)
	assert.Equal(t, filepath.Join(home, ".config", "cachescope"), info.ConfigDir("cachescope"))
}

func TestResolve_MacOS(t *testing.T) {
	info := Resolve(MacOS, "/Users/bob", nil)
	assert.Equal(t, "macOS", info.Name)
	assert.Equal(t, filepath.Join("/Users/bob", "Library", "Caches"), info.CacheHome)
	assert.Equal(t, filepath.Join("/Users/bob", ".config", "cachescope"), info.ConfigDir("cachescope"))
	assert.Contains(t, info.ProtectedPaths, filepath.Join("/Users/bob", "Documents"))
}

func TestResolve_Windows(t *testing.T) {
	info := Resolve(Windows, "home", envMap(map[string]string{}))
	assert.Equal(t, filepath.Join("home", "AppData", "Roaming"), info.AppData)
	assert.Equal(t, filepath.Join("home", "AppData", "Local"), info.LocalAppData)
	assert.Equal(t, info.LocalAppData, info.CacheHome)
}

func TestCatalog_WellFormed(t *testing.T) {
	for _, p := range []Platform{Linux, MacOS, Windows} {
		t.Run(string(p), func(t *testing.T) {
			info := Resolve(p, filepath.FromSlash("/home/u"), nil)
			locs := Catalog(info)
			require.NotEmpty(t, locs)

			seen := make(map[string]bool)
			categories := make(map[scanner.Category]bool)
			for _, l := range locs {
				assert.NotEmpty(t, l.Name)
				assert.NotEmpty(t, l.Description, l.Name)
				assert.True(t, l.Category.Valid(), l.Name)
				assert.NotZero(t, l.RiskLevel, l.Name)
				assert.False(t, seen[l.Path], "duplicate path %s", l.Path)
				seen[l.Path] = true
				categories[l.Category] = true
			}

			assert.True(t, categories[scanner.CategoryDownloads])
			assert.True(t, categories[scanner.CategoryDevelopment])
			assert.True(t, categories[scanner.CategoryBrowser])
			for _, d := range ByCategory(locs, scanner.CategoryDownloads) {
				assert.Equal(t, scanner.RiskCaution, d.RiskLevel)
			}
		})
	}

	assert.Nil(t, Catalog(nil))
	assert.Nil(t, Catalog(&Info{OS: Unknown}))
}

func TestCatalog_LinuxFollowsXDG(t *testing.T) {
	info := Resolve(Linux, "/home/u", envMap(map[string]string{"XDG_CACHE_HOME": "/fast/cache"}))
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	var found bool
	for _, l := range Catalog(info) {
		if l.Name == "Go Build Cache" {
			found = true
			assert.Equal(t, "/fast/cache/go-build", l.Path)
			assert.True(t, l.ContentsOnly)
		}
		if l.Name == "X Session Errors" {
			assert.False(t, l.ContentsOnly)
		}
	}
	assert.True(t, found)
}

func TestByMaxRisk(t *testing.T) {
	locs := []scanner.Location{
		{Name: "a", RiskLevel: scanner.RiskSafe},
		{Name: "b", RiskLevel: scanner.RiskModerate},
		{Name: "c", RiskLevel: scanner.RiskCaution},
		{Name: "unset"},
	}

	names := func(ls []scanner.Location) []string {
		var out []string
		for _, l := range ls {
			out = append(out, l.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a", "unset"}, names(ByMaxRisk(locs, scanner.RiskSafe)))
	assert.Equal(t, []string{"a", "b", "unset"}, names(ByMaxRisk(locs, scanner.RiskModerate)))
	assert.Len(t, ByMaxRisk(locs, scanner.RiskCaution), 4)
	assert.Len(t, ByMaxRisk(locs, 0), 4)
}

func TestMountPointFor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	mounts := []string{"/", "/home", "/home/u/data", "/homework"}

	assert.Equal(t, "/home", mountPointFor("/home/u/.cache", mounts))
	assert.Equal(t, "/home/u/data", mountPointFor("/home/u/data", mounts))
	assert.Equal(t, "/", mountPointFor("/var/tmp", mounts))
	assert.Equal(t, "/homework", mountPointFor("/homework/x", mounts))
	assert.Equal(t, "", mountPointFor("/x", nil))
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()

	du, err := DiskUsage(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, du.Path)
	assert.NotZero(t, du.Total)
	assert.LessOrEqual(t, du.Used, du.Total)

	_, err = DiskUsageWithContext(context.Background(), filepath.Join(dir, "missing", "deeper"))
	assert.Error(t, err)
}

func TestDiskPaths(t *testing.T) {
	assert.Equal(t, []string{"/home/u", "/"}, DiskPaths(&Info{OS: Linux, HomeDir: "/home/u"}))
	assert.Equal(t, []string{`C:\Users\u`, `C:\`}, DiskPaths(&Info{OS: Windows, HomeDir: `C:\Users\u`}))
	assert.Nil(t, DiskPaths(nil))
}

func TestGetInfo(t *testing.T) {
	if Detect() == Unknown {
		t.Skip("unsupported platform")
	}

	info, err := GetInfo(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, info.HomeDir)
	assert.NotEmpty(t, info.Username)
	assert.NotEmpty(t, info.Name)
	assert.Equal(t, info.Name, info.PlatformInfo().Name)
	assert.Equal(t, info.Username, info.PlatformInfo().Username)
}
