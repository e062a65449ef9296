package scanner

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/cachescope/internal/testutil"
)

func location(path string) Location {
	return Location{Path: path, Name: filepath.Base(path), Category: CategoryUserCache, RiskLevel: RiskSafe}
}

// =============================================================================
// Scan Tests
// =============================================================================

func TestScan_Totals(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/a.txt", 100)
	f.CreateSizedFile("cache/b.TXT", 50)
	f.CreateSizedFile("cache/nested/deep/c.log", 200)
	f.CreateSizedFile("cache/nested/Makefile", 10)
	f.CreateSizedFile("cache/.hidden", 5)

	item, err := New().Scan(location(f.Path("cache")))
	require.NoError(t, err)

	assert.True(t, item.IsDir)
	assert.Equal(t, int64(365), item.SizeBytes)
	assert.Equal(t, 5, item.FileCount)
	assert.Equal(t, 2, item.DirCount)
	assert.Nil(t, item.ScanError)

	assert.Equal(t, TypeStats{Count: 2, SizeBytes: 150}, item.FileTypes[".txt"])
	assert.Equal(t, TypeStats{Count: 1, SizeBytes: 200}, item.FileTypes[".log"])
	assert.Equal(t, TypeStats{Count: 2, SizeBytes: 15}, item.FileTypes[NoExtensionKey])
}

func TestScan_BreakdownConservation(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("cache/x", 7, 13)
	f.CreateSizedFile("cache/y/readme.md", 99)
	f.CreateSizedFile("cache/y/z/archive.tar.gz", 1234)
	f.CreateSizedFile("cache/noext", 1)

	item, err := New().Scan(location(f.Path("cache")))
	require.NoError(t, err)

	var size int64
	var count int
	for _, ts := range item.FileTypes {
		size += ts.SizeBytes
		count += ts.Count
	}
	assert.Equal(t, item.SizeBytes, size)
	assert.Equal(t, item.FileCount, count)
}

func TestScan_AbsentLocation(t *testing.T) {
	f := testutil.NewFixture(t)

	_, err := New().Scan(location(f.Path("missing")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocationAbsent))
}

func TestScan_InvalidLocation(t *testing.T) {
	_, err := New().Scan(Location{Path: "relative/dir", Name: "rel"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLocation))

	_, err = New().Scan(Location{Name: "empty"})
	assert.True(t, errors.Is(err, ErrInvalidLocation))
}

func TestScan_Idempotent(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("cache/a", 20, 64)
	f.CreateSizedFile("cache/b/big.bin", 4096)
	f.CreateFileWithAge("cache/b/old.dat", 10, 90*24*time.Hour)

	now := time.Now()
	s := New(WithClock(func() time.Time { return now }))

	first, err := s.Scan(location(f.Path("cache")))
	require.NoError(t, err)
	second, err := s.Scan(location(f.Path("cache")))
	require.NoError(t, err)

	assert.Equal(t, first.SizeBytes, second.SizeBytes)
	assert.Equal(t, first.FileCount, second.FileCount)
	assert.Equal(t, first.FileTypes, second.FileTypes)
	assert.Equal(t, first.LargestFiles, second.LargestFiles)
	assert.Equal(t, first.AgeDays, second.AgeDays)
}

func TestScan_LargestFilesOrdering(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/small.bin", 1)
	f.CreateSizedFile("cache/b.bin", 300)
	f.CreateSizedFile("cache/a.bin", 300)
	f.CreateSizedFile("cache/huge.bin", 900)
	f.CreateSizedFile("cache/mid.bin", 50)

	item, err := New(WithLargestFiles(3)).Scan(location(f.Path("cache")))
	require.NoError(t, err)

	require.Len(t, item.LargestFiles, 3)
	assert.Equal(t, f.Path("cache/huge.bin"), item.LargestFiles[0].Path)
	assert.Equal(t, f.Path("cache/a.bin"), item.LargestFiles[1].Path)
	assert.Equal(t, f.Path("cache/b.bin"), item.LargestFiles[2].Path)
	assert.Equal(t, int64(900), item.LargestFiles[0].SizeBytes)
}

func TestScan_Staleness(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileWithAge("old/file.log", 100, 40*24*time.Hour)
	f.CreateFileWithAge("fresh/file.log", 100, 2*24*time.Hour)

	s := New(WithStaleThreshold(30))

	old, err := s.Scan(location(f.Path("old")))
	require.NoError(t, err)
	assert.Equal(t, 40, old.AgeDays)
	assert.True(t, old.IsStale)
	assert.Equal(t, 30, old.StaleThresholdDays)

	fresh, err := s.Scan(location(f.Path("fresh")))
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.AgeDays)
	assert.False(t, fresh.IsStale)
	assert.True(t, fresh.IsStaleAt(1))
}

func TestScan_LastAccessedIsMostRecent(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileWithAge("cache/old.txt", 1, 100*24*time.Hour)
	f.CreateFileWithAge("cache/newer.txt", 1, 10*24*time.Hour)

	item, err := New().Scan(location(f.Path("cache")))
	require.NoError(t, err)
	assert.Equal(t, 10, item.AgeDays)
}

func TestScan_FileRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	p := f.CreateSizedFile(".xsession-errors", 42)

	item, err := New().Scan(location(p))
	require.NoError(t, err)

	assert.False(t, item.IsDir)
	assert.Equal(t, int64(42), item.SizeBytes)
	assert.Equal(t, 1, item.FileCount)
	assert.Equal(t, TypeStats{Count: 1, SizeBytes: 42}, item.FileTypes[NoExtensionKey])
}

func TestScan_PartialFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/ok/one.bin", 10)
	f.CreateSizedFile("cache/locked/secret.bin", 1000)
	f.CreateSizedFile("cache/two.bin", 20)

	s := New(WithFS(testutil.NewFaultyFS("locked")))
	item, err := s.Scan(location(f.Path("cache")))
	require.NoError(t, err)

	require.NotNil(t, item.ScanError)
	assert.Equal(t, ScanPartialFailure, item.ScanError.Kind)
	assert.Equal(t, ReasonPermissionDenied, item.ScanError.Reason)
	assert.Equal(t, f.Path("cache/locked"), item.ScanError.Path)
	assert.Equal(t, 1, item.ScanError.Count)

	assert.Equal(t, int64(30), item.SizeBytes)
	assert.Equal(t, 2, item.FileCount)
}

func TestScan_TotalFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/one.bin", 10)

	s := New(WithFS(testutil.NewFaultyFS(".")))
	item, err := s.Scan(location(f.Path("cache")))
	require.NoError(t, err)

	require.NotNil(t, item.ScanError)
	assert.Equal(t, ScanTotalFailure, item.ScanError.Kind)
	assert.Equal(t, int64(0), item.SizeBytes)
	assert.Equal(t, 0, item.FileCount)
	assert.Empty(t, item.FileTypes)
	assert.True(t, item.LastAccessed.IsZero())
	assert.False(t, item.IsStale)
}

func TestScan_UnreadableDirectory(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/visible.bin", 10)
	f.CreateUnreadableDir("cache/private")

	item, err := New().Scan(location(f.Path("cache")))
	require.NoError(t, err)

	require.NotNil(t, item.ScanError)
	assert.Equal(t, ScanPartialFailure, item.ScanError.Kind)
	assert.Equal(t, ReasonPermissionDenied, item.ScanError.Reason)
	assert.Equal(t, int64(10), item.SizeBytes)
}

func TestScan_SymlinksNotFollowed(t *testing.T) {
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	f.CreateSizedFile("outside/huge.bin", 1<<20)
	f.CreateSizedFile("cache/real.bin", 10)
	f.CreateSymlink(f.Path("outside"), "cache/escape")
	f.CreateSymlink(f.Path("cache"), "cache/loop")

	item, err := New().Scan(location(f.Path("cache")))
	require.NoError(t, err)

	assert.Nil(t, item.ScanError)
	assert.Equal(t, 3, item.FileCount)
	assert.Less(t, item.SizeBytes, int64(1<<20))
	for _, fe := range item.LargestFiles {
		assert.False(t, strings.Contains(fe.Path, "huge.bin"))
	}
}

func TestScan_SymlinkedRootIsWalked(t *testing.T) {
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	f.CreateSizedFile("real/data.bin", 77)
	link := f.CreateSymlink(f.Path("real"), "link")

	item, err := New().Scan(location(link))
	require.NoError(t, err)
	assert.Equal(t, int64(77), item.SizeBytes)
	assert.Equal(t, link, item.Path)
}

func TestScan_CarriesDescriptor(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("cache/x.bin", 1)

	loc := Location{
		Path:         f.Path("cache") + string(filepath.Separator),
		Name:         "Thing",
		Category:     CategoryDevelopment,
		Description:  "build output",
		ContentsOnly: true,
	}
	item, err := New().Scan(loc)
	require.NoError(t, err)

	assert.Equal(t, f.Path("cache"), item.Path)
	assert.Equal(t, "Thing", item.Name)
	assert.Equal(t, CategoryDevelopment, item.Category)
	assert.Equal(t, RiskSafe, item.RiskLevel)
	assert.True(t, item.ContentsOnly)
	assert.Equal(t, loc.Description, item.Location().Description)
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExtensionKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"file.txt", ".txt"},
		{"FILE.TXT", ".txt"},
		{"archive.tar.gz", ".gz"},
		{"Makefile", NoExtensionKey},
		{".bashrc", NoExtensionKey},
		{"trailing.", NoExtensionKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extensionKey(tt.name))
		})
	}
}

func TestTopFiles(t *testing.T) {
	top := newTopFiles(2)
	top.Offer(FileEntry{Path: "/c", SizeBytes: 5})
	top.Offer(FileEntry{Path: "/b", SizeBytes: 5})
	top.Offer(FileEntry{Path: "/a", SizeBytes: 5})
	top.Offer(FileEntry{Path: "/tiny", SizeBytes: 1})

	assert.Equal(t, []FileEntry{{Path: "/a", SizeBytes: 5}, {Path: "/b", SizeBytes: 5}}, top.Sorted())

	none := newTopFiles(0)
	none.Offer(FileEntry{Path: "/x", SizeBytes: 1})
	assert.Empty(t, none.Sorted())
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ageDays(now, time.Time{}))
	assert.Equal(t, 0, ageDays(now, now.Add(time.Hour)))
	assert.Equal(t, 0, ageDays(now, now.Add(-23*time.Hour)))
	assert.Equal(t, 1, ageDays(now, now.Add(-25*time.Hour)))
	assert.Equal(t, 40, ageDays(now, now.Add(-40*24*time.Hour-time.Minute)))
}
