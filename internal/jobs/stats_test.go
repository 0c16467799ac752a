package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCounters(t *testing.T) {
	stats := NewStats()

	for i := 0; i < 5; i++ {
		stats.RecordSubmitted()
	}
	stats.RecordCompleted(2 * time.Second)
	stats.RecordCompleted(4 * time.Second)
	stats.RecordFailed(6 * time.Second)
	stats.RecordCancelled(0)

	snap := stats.Snapshot(1, 2)
	assert.Equal(t, int64(5), snap.TotalJobs)
	assert.Equal(t, int64(2), snap.Completed)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.Cancelled)
	assert.Equal(t, 1, snap.Processing)
	assert.Equal(t, 2, snap.Queued)
	// Only timed jobs count toward the average: (2+4+6)/3.
	assert.InDelta(t, 4.0, snap.AvgProcessingSecs, 0.01)
	assert.Greater(t, snap.UptimeSeconds, 0.0)
}

func TestStatsExportRestore(t *testing.T) {
	stats := NewStats()
	stats.RecordSubmitted()
	stats.RecordCompleted(3 * time.Second)

	state := stats.Export()

	restored := NewStats()
	restored.Restore(state)

	snap := restored.Snapshot(0, 0)
	assert.Equal(t, int64(1), snap.TotalJobs)
	assert.Equal(t, int64(1), snap.Completed)
	assert.InDelta(t, 3.0, snap.AvgProcessingSecs, 0.01)
}
