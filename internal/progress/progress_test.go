package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_SubscribeReceivesUpdates(t *testing.T) {
	pr := NewReporter()
	ch := pr.Subscribe()

	pr.UpdateScan(&ScanProgress{Phase: PhaseScanning, Location: "pip", LocationsTotal: 2})
	pr.UpdateClean(&CleanProgress{Phase: PhaseCleaning, CurrentItem: "pip"})

	first := <-ch
	sp, ok := first.(*ScanProgress)
	require.True(t, ok)
	assert.Equal(t, "pip", sp.Location)

	second := <-ch
	_, ok = second.(*CleanProgress)
	assert.True(t, ok)

	assert.Equal(t, "pip", pr.Scan().Location)
	assert.Equal(t, "pip", pr.Clean().CurrentItem)
}

func TestReporter_FullListenerDoesNotBlock(t *testing.T) {
	pr := NewReporter()
	_ = pr.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			pr.UpdateScan(&ScanProgress{LocationsDone: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("UpdateScan blocked on a full listener")
	}
}

func TestReporter_Unsubscribe(t *testing.T) {
	pr := NewReporter()
	ch := pr.Subscribe()
	pr.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	pr.UpdateScan(&ScanProgress{})
}

func TestReporter_NilIsSafe(t *testing.T) {
	var pr *Reporter
	pr.UpdateScan(&ScanProgress{})
	pr.UpdateClean(&CleanProgress{})
}

func TestFormatCleanProgress_DryRun(t *testing.T) {
	p := &CleanProgress{Phase: PhaseComplete, ItemsDone: 2, FreedBytes: 2048, DryRun: true, StartTime: time.Now()}
	assert.Contains(t, FormatCleanProgress(p), "would be freed")

	p.DryRun = false
	assert.NotContains(t, FormatCleanProgress(p), "would be")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "2m3s", FormatDuration(123*time.Second))
	assert.Equal(t, "1h0m1s", FormatDuration(time.Hour+time.Second))
}
