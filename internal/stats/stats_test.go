package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulateAcrossScans(t *testing.T) {
	s := NewScan(1024)

	s.Start()
	s.AddFrame(80)
	s.AddSkipped(5)
	s.IncResync()
	s.Stop()

	s.Start()
	s.AddFrame(80)
	s.Stop()

	snap := s.Snapshot()
	assert.Equal(t, int64(1024), snap.TotalBytes)
	assert.Equal(t, int64(2), snap.Frames)
	assert.Equal(t, int64(160), snap.FrameBytes)
	assert.Equal(t, int64(5), snap.SkippedBytes)
	assert.Equal(t, int64(1), snap.Resyncs)
}

func TestDurationCoversMostRecentWindow(t *testing.T) {
	s := NewScan(0)

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	first := s.Snapshot().Duration
	require.GreaterOrEqual(t, first, 30*time.Millisecond)

	// A later pass restarts the window rather than extending the
	// first one.
	s.Start()
	s.Stop()
	second := s.Snapshot().Duration
	assert.Less(t, second, first)
}

func TestIgnoredInputs(t *testing.T) {
	s := NewScan(-10)
	s.AddFrame(0)
	s.AddFrame(-3)
	s.AddSkipped(-1)

	snap := s.Snapshot()
	assert.Equal(t, int64(0), snap.TotalBytes)
	assert.Equal(t, int64(0), snap.Frames)
	assert.Equal(t, int64(0), snap.FrameBytes)
	assert.Equal(t, int64(0), snap.SkippedBytes)
	assert.Equal(t, time.Duration(0), snap.Duration)
}
