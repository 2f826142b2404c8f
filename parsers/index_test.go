package parsers

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisahap1/fusion-engine-client/internal/testutil"
	"github.com/sisahap1/fusion-engine-client/messages"
)

func sampleIndex() *FileIndex {
	return &FileIndex{Entries: []IndexEntry{
		{Offset: 0, Type: messages.TypeEventNotification, P1Time: math.NaN(), SystemTime: 1.0},
		{Offset: 64, Type: messages.TypePose, P1Time: 1.0, SystemTime: math.NaN()},
		{Offset: 160, Type: messages.TypePose, P1Time: 2.0, SystemTime: math.NaN()},
		{Offset: 256, Type: messages.TypeGNSSInfo, P1Time: 2.0, SystemTime: math.NaN()},
	}}
}

func TestIndexPath(t *testing.T) {
	assert.Equal(t, "/data/run.p1i", IndexPath("/data/run.p1log"))
	assert.Equal(t, "run.p1i", IndexPath("run.bin"))
	assert.Equal(t, "noext.p1i", IndexPath("noext"))
}

func TestIndexSaveLoadRoundTrip(t *testing.T) {
	dataPath := writeSample(t, false)
	idx := sampleIndex()
	require.NoError(t, SaveIndex(dataPath, idx))

	loaded, err := LoadIndex(dataPath)
	require.NoError(t, err)
	require.Equal(t, idx.Len(), loaded.Len())
	for i, entry := range loaded.Entries {
		want := idx.Entries[i]
		assert.Equal(t, want.Offset, entry.Offset)
		assert.Equal(t, want.Type, entry.Type)
		assert.Equal(t, math.IsNaN(want.P1Time), math.IsNaN(entry.P1Time))
		if !math.IsNaN(want.P1Time) {
			assert.Equal(t, want.P1Time, entry.P1Time)
		}
		assert.Equal(t, math.IsNaN(want.SystemTime), math.IsNaN(entry.SystemTime))
		if !math.IsNaN(want.SystemTime) {
			assert.Equal(t, want.SystemTime, entry.SystemTime)
		}
	}
}

func TestLoadIndexMissingSidecar(t *testing.T) {
	dataPath := writeSample(t, false)
	_, err := LoadIndex(dataPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadIndexStaleAfterDataChange(t *testing.T) {
	dataPath := writeSample(t, false)
	require.NoError(t, SaveIndex(dataPath, sampleIndex()))

	// Grow the data file; the stored size/mtime token no longer holds.
	f, err := os.OpenFile(dataPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = LoadIndex(dataPath)
	assert.ErrorIs(t, err, ErrIndexStale)
}

func TestLoadIndexCorrupt(t *testing.T) {
	dataPath := writeSample(t, false)
	require.NoError(t, SaveIndex(dataPath, sampleIndex()))
	sidecar := IndexPath(dataPath)

	t.Run("flipped byte", func(t *testing.T) {
		raw, err := os.ReadFile(sidecar)
		require.NoError(t, err)
		raw[len(raw)/2] ^= 0xFF
		require.NoError(t, os.WriteFile(sidecar, raw, 0o644))
		_, err = LoadIndex(dataPath)
		assert.ErrorIs(t, err, ErrIndexCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		require.NoError(t, SaveIndex(dataPath, sampleIndex()))
		raw, err := os.ReadFile(sidecar)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(sidecar, raw[:8], 0o644))
		_, err = LoadIndex(dataPath)
		assert.ErrorIs(t, err, ErrIndexCorrupt)
	})

	t.Run("bad magic", func(t *testing.T) {
		require.NoError(t, SaveIndex(dataPath, sampleIndex()))
		raw, err := os.ReadFile(sidecar)
		require.NoError(t, err)
		copy(raw, "NOPE")
		require.NoError(t, os.WriteFile(sidecar, raw, 0o644))
		_, err = LoadIndex(dataPath)
		assert.ErrorIs(t, err, ErrIndexCorrupt)
	})
}

func TestFilterPreservesOrder(t *testing.T) {
	idx := sampleIndex()

	filtered := idx.Filter([]messages.MessageType{messages.TypePose})
	require.Equal(t, 2, filtered.Len())
	assert.Equal(t, uint64(64), filtered.Entries[0].Offset)
	assert.Equal(t, uint64(160), filtered.Entries[1].Offset)

	both := idx.Filter([]messages.MessageType{messages.TypePose, messages.TypeGNSSInfo})
	require.Equal(t, 3, both.Len())
	assert.Equal(t, uint64(256), both.Entries[2].Offset)

	// Empty filter means the original index.
	assert.Equal(t, idx, idx.Filter(nil))

	none := idx.Filter([]messages.MessageType{messages.TypePoseAux})
	assert.Equal(t, 0, none.Len())
}

func writeSample(t *testing.T, withGarbage bool) string {
	t.Helper()
	path := writeFile(t, nil)
	_, err := testutil.WriteSampleLog(path, withGarbage)
	require.NoError(t, err)
	return path
}
