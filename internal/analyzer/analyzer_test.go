package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/testutil"
)

type fakeRecorder struct {
	mu        sync.Mutex
	results   map[string]int
	inventory int
	bytes     int64
}

func (r *fakeRecorder) RecordLocation(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]int)
	}
	r.results[result]++
}

func (r *fakeRecorder) RecordInventory(_ time.Duration, totalBytes int64, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inventory++
	r.bytes = totalBytes
}

// scenarioFixture lays out three locations: A holds ten 50 byte files,
// B does not exist and C holds one 100 byte file untouched for 40 days.
func scenarioFixture(t *testing.T) (*testutil.TestFixture, []scanner.Location) {
	f := testutil.NewFixture(t)
	f.CreateFiles("A", 10, 50)
	f.CreateFileWithAge("C/old.bin", 100, 40*24*time.Hour)

	locs := []scanner.Location{
		{Path: f.Path("A"), Name: "A", Category: scanner.CategoryUserCache, RiskLevel: scanner.RiskSafe},
		{Path: f.Path("B"), Name: "B", Category: scanner.CategoryLogs, RiskLevel: scanner.RiskSafe},
		{Path: f.Path("C"), Name: "C", Category: scanner.CategoryDownloads, RiskLevel: scanner.RiskCaution},
	}
	return f, locs
}

// =============================================================================
// BuildInventory Tests
// =============================================================================

func TestBuildInventory_Scenario(t *testing.T) {
	_, locs := scenarioFixture(t)

	a := New(scanner.New(scanner.WithStaleThreshold(30)))
	snap, err := a.BuildInventory(context.Background(), locs)
	require.NoError(t, err)

	items := snap.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "C", items[1].Name)

	assert.Equal(t, int64(500), items[0].SizeBytes)
	assert.Equal(t, 10, items[0].FileCount)
	assert.False(t, items[0].IsStale)

	assert.Equal(t, int64(100), items[1].SizeBytes)
	assert.Equal(t, 40, items[1].AgeDays)
	assert.True(t, items[1].IsStale)

	meta := snap.Metadata()
	assert.Equal(t, 3, meta.PathsTotal)
	assert.Equal(t, 2, meta.PathsFound)
	assert.Equal(t, 1, meta.PathsAbsent)
	assert.Equal(t, 30, meta.StaleThresholdDays)

	stats := snap.Stats()
	assert.Equal(t, int64(600), stats.TotalSize)
	assert.Equal(t, int64(500), stats.CleanableSize)
	assert.Equal(t, 1, stats.CleanableCount)
	assert.Equal(t, int64(100), stats.StaleSize)
	assert.Equal(t, 1, stats.StaleCount)
	assert.Equal(t, CategoryStats{Count: 1, SizeBytes: 100, FileCount: 1}, stats.ByCategory[scanner.CategoryDownloads])

	safe := Select(snap, Criteria{MaxRisk: scanner.RiskSafe})
	require.Len(t, safe, 1)
	assert.Equal(t, "A", safe[0].Name)

	stale := Select(snap, Criteria{StaleOnly: true, StaleThresholdDays: 30})
	require.Len(t, stale, 1)
	assert.Equal(t, "C", stale[0].Name)
}

func TestBuildInventory_DeterministicOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	var locs []scanner.Location
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("loc%02d", i)
		f.CreateFiles(name, i%5+1, 10*(40-i))
		locs = append(locs, scanner.Location{Path: f.Path(name), Name: name, Category: scanner.CategoryUserCache})
	}

	for _, workers := range []int{1, 3, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			snap, err := New(scanner.New(), WithWorkers(workers)).BuildInventory(context.Background(), locs)
			require.NoError(t, err)
			require.Equal(t, len(locs), snap.Len())
			for i, item := range snap.Items() {
				assert.Equal(t, locs[i].Name, item.Name)
			}
		})
	}
}

func TestBuildInventory_CatalogEmpty(t *testing.T) {
	_, err := New(scanner.New()).BuildInventory(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrCatalogEmpty))

	invalid := []scanner.Location{{Path: "relative", Name: "bad"}, {Name: "empty"}}
	_, err = New(scanner.New()).BuildInventory(context.Background(), invalid)
	assert.True(t, errors.Is(err, ErrCatalogEmpty))
}

func TestBuildInventory_AllAbsentIsNotAnError(t *testing.T) {
	f := testutil.NewFixture(t)
	locs := []scanner.Location{{Path: f.Path("nope"), Name: "nope"}}

	snap, err := New(scanner.New()).BuildInventory(context.Background(), locs)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, 1, snap.Metadata().PathsAbsent)
}

func TestBuildInventory_FailuresAreContained(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("one/a.bin", 10)
	f.CreateSizedFile("one/denied/b.bin", 10)
	f.CreateSizedFile("two/c.bin", 20)

	locs := []scanner.Location{
		{Path: f.Path("one"), Name: "one"},
		{Path: "relative/path", Name: "invalid"},
		{Path: f.Path("two"), Name: "two"},
	}

	rec := &fakeRecorder{}
	s := scanner.New(scanner.WithFS(testutil.NewFaultyFS("denied")))
	snap, err := New(s, WithRecorder(rec)).BuildInventory(context.Background(), locs)
	require.NoError(t, err)

	items := snap.Items()
	require.Len(t, items, 2)
	require.NotNil(t, items[0].ScanError)
	assert.Equal(t, scanner.ScanPartialFailure, items[0].ScanError.Kind)
	assert.Equal(t, int64(10), items[0].SizeBytes)
	assert.Nil(t, items[1].ScanError)
	assert.Equal(t, int64(20), items[1].SizeBytes)

	assert.Equal(t, 1, snap.Stats().ErrorCount)
	assert.Equal(t, 1, snap.Metadata().PathsSkipped)
	assert.Equal(t, 1, rec.results[ResultPartial])
	assert.Equal(t, 1, rec.results[ResultOK])
	assert.Equal(t, 1, rec.results[ResultInvalid])
	assert.Equal(t, 1, rec.inventory)
	assert.Equal(t, int64(30), rec.bytes)
}

func TestBuildInventory_DiskUsage(t *testing.T) {
	_, locs := scenarioFixture(t)

	tried := []string{}
	du := func(path string) (DiskUsage, error) {
		tried = append(tried, path)
		if path == "/broken" {
			return DiskUsage{}, errors.New("statfs failed")
		}
		return DiskUsage{Path: path, Total: 1000, Used: 400, Free: 600, UsedPercent: 40}, nil
	}

	snap, err := New(scanner.New(), WithDiskUsage(du, "/broken", "/home")).BuildInventory(context.Background(), locs)
	require.NoError(t, err)
	assert.Equal(t, []string{"/broken", "/home"}, tried)
	assert.Equal(t, uint64(600), snap.Disk().Free)
	assert.NoError(t, snap.DiskErr())
}

func TestBuildInventory_DiskUsageFailureKeepsItems(t *testing.T) {
	_, locs := scenarioFixture(t)

	du := func(string) (DiskUsage, error) { return DiskUsage{}, errors.New("statfs failed") }
	snap, err := New(scanner.New(), WithDiskUsage(du, "/a")).BuildInventory(context.Background(), locs)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiskUsage))
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Len())
	assert.Error(t, snap.DiskErr())
}

func TestBuildInventory_Cancelled(t *testing.T) {
	_, locs := scenarioFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(scanner.New()).BuildInventory(ctx, locs)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuildInventory_ReportsProgress(t *testing.T) {
	_, locs := scenarioFixture(t)

	pr := progress.NewReporter()
	snap, err := New(scanner.New(), WithProgress(pr), WithWorkers(1)).BuildInventory(context.Background(), locs)
	require.NoError(t, err)

	last := pr.Scan()
	require.NotNil(t, last)
	assert.Equal(t, progress.PhaseComplete, last.Phase)
	assert.Equal(t, 3, last.LocationsDone)
	assert.Equal(t, snap.Stats().TotalSize, last.TotalSize)
}

func TestBuildInventory_Idempotent(t *testing.T) {
	_, locs := scenarioFixture(t)

	a := New(scanner.New())
	first, err := a.BuildInventory(context.Background(), locs)
	require.NoError(t, err)
	second, err := a.BuildInventory(context.Background(), locs)
	require.NoError(t, err)

	for i, item := range first.Items() {
		other := second.Items()[i]
		assert.Equal(t, item.SizeBytes, other.SizeBytes)
		assert.Equal(t, item.FileCount, other.FileCount)
		assert.Equal(t, item.FileTypes, other.FileTypes)
	}
}

func TestDefaultWorkers(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 4},
		{2, 4},
		{4, 4},
		{12, 12},
		{32, 32},
		{96, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampWorkers(tt.in), "clampWorkers(%d)", tt.in)
	}

	assert.Equal(t, clampWorkers(2*runtime.NumCPU()), DefaultWorkers())
}
