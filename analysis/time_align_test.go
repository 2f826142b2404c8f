package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisahap1/fusion-engine-client/internal/testutil"
	"github.com/sisahap1/fusion-engine-client/messages"
)

func sampleData() map[messages.MessageType]*MessageData {
	data := make(map[messages.MessageType]*MessageData)
	for _, msg := range testutil.SampleMessages() {
		mt := msg.Type()
		if data[mt] == nil {
			data[mt] = &MessageData{Type: mt}
		}
		data[mt].Messages = append(data[mt].Messages, msg)
	}
	return data
}

func p1Times(t *testing.T, data *MessageData) []float64 {
	t.Helper()
	out := make([]float64, 0, len(data.Messages))
	for _, msg := range data.Messages {
		p1, ok := msg.P1Time()
		require.True(t, ok)
		out = append(out, p1)
	}
	return out
}

func TestDrop(t *testing.T) {
	data := sampleData()
	require.NoError(t, TimeAlignData(data, AlignmentDrop))

	// 2s is the only epoch common to pose, pose aux, and GNSS info.
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypePose]))
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypePoseAux]))
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypeGNSSInfo]))

	// Events carry no reference time and stay untouched.
	assert.Len(t, data[messages.TypeEventNotification].Messages, 3)
}

func TestInsert(t *testing.T) {
	data := sampleData()
	require.NoError(t, TimeAlignData(data, AlignmentInsert))

	axis := []float64{1.0, 2.0, 3.0}
	assert.Equal(t, axis, p1Times(t, data[messages.TypePose]))
	assert.Equal(t, axis, p1Times(t, data[messages.TypePoseAux]))
	assert.Equal(t, axis, p1Times(t, data[messages.TypeGNSSInfo]))

	// Real pose messages keep their data; the synthesized 3s entry is
	// NaN-filled.
	poses := data[messages.TypePose].Messages
	assert.Equal(t, 1.0, poses[0].(*messages.PoseMessage).VelocityBodyMPS[0])
	assert.Equal(t, 4.0, poses[1].(*messages.PoseMessage).VelocityBodyMPS[0])
	assert.True(t, math.IsNaN(poses[2].(*messages.PoseMessage).VelocityBodyMPS[0]))

	// Pose aux lacks the 1s epoch instead.
	auxes := data[messages.TypePoseAux].Messages
	assert.True(t, math.IsNaN(auxes[0].(*messages.PoseAuxMessage).VelocityENUMPS[0]))
	assert.Equal(t, 14.0, auxes[1].(*messages.PoseAuxMessage).VelocityENUMPS[0])
	assert.Equal(t, 17.0, auxes[2].(*messages.PoseAuxMessage).VelocityENUMPS[0])

	infos := data[messages.TypeGNSSInfo].Messages
	assert.True(t, math.IsNaN(infos[0].(*messages.GNSSInfoMessage).GDOP))
	assert.Equal(t, 5.0, infos[1].(*messages.GNSSInfoMessage).GDOP)
	assert.Equal(t, 6.0, infos[2].(*messages.GNSSInfoMessage).GDOP)

	assert.Len(t, data[messages.TypeEventNotification].Messages, 3)
}

func TestDropSpecificTypes(t *testing.T) {
	data := sampleData()
	require.NoError(t, TimeAlignData(data, AlignmentDrop,
		messages.TypePose, messages.TypeGNSSInfo))

	// Restricting participation leaves pose aux untouched while pose
	// and GNSS info reduce to their shared 2s epoch.
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypePose]))
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypeGNSSInfo]))
	assert.Equal(t, []float64{2.0, 3.0}, p1Times(t, data[messages.TypePoseAux]))
}

func TestAlignmentNoneIsNoOp(t *testing.T) {
	data := sampleData()
	require.NoError(t, TimeAlignData(data, AlignmentNone))
	assert.Len(t, data[messages.TypePose].Messages, 2)
	assert.Len(t, data[messages.TypePoseAux].Messages, 2)
}

func TestEventTypeNamedExplicitlyStaysExcluded(t *testing.T) {
	data := sampleData()
	require.NoError(t, TimeAlignData(data, AlignmentDrop,
		messages.TypePose, messages.TypeEventNotification))

	// A type without a reference time never participates, named or not.
	// Pose is then the only participant and keeps both epochs.
	assert.Equal(t, []float64{1.0, 2.0}, p1Times(t, data[messages.TypePose]))
	assert.Len(t, data[messages.TypeEventNotification].Messages, 3)
}

func TestMissingNamedTypeIgnored(t *testing.T) {
	data := sampleData()
	delete(data, messages.TypeGNSSInfo)

	require.NoError(t, TimeAlignData(data, AlignmentDrop,
		messages.TypePose, messages.TypeGNSSInfo, messages.TypePoseAux))
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypePose]))
	assert.Equal(t, []float64{2.0}, p1Times(t, data[messages.TypePoseAux]))
}

func TestEmptyParticipatingStreamForcesEmptyDrop(t *testing.T) {
	data := sampleData()
	data[messages.TypeGNSSInfo].Messages = nil

	require.NoError(t, TimeAlignData(data, AlignmentDrop))
	assert.Empty(t, data[messages.TypePose].Messages)
	assert.Empty(t, data[messages.TypePoseAux].Messages)
	assert.Empty(t, data[messages.TypeGNSSInfo].Messages)
}

func TestInsertWithEmptyStreamSynthesizesAll(t *testing.T) {
	data := sampleData()
	data[messages.TypeGNSSInfo].Messages = nil

	require.NoError(t, TimeAlignData(data, AlignmentInsert))
	infos := data[messages.TypeGNSSInfo].Messages
	require.Len(t, infos, 3)
	for i, want := range []float64{1.0, 2.0, 3.0} {
		p1, ok := infos[i].P1Time()
		require.True(t, ok)
		assert.Equal(t, want, p1)
		assert.True(t, math.IsNaN(infos[i].(*messages.GNSSInfoMessage).GDOP))
	}
}

func TestDuplicateTimestampsKeepFirst(t *testing.T) {
	first := &messages.PoseMessage{
		P1Timestamp:     messages.NewTimestamp(2.0),
		VelocityBodyMPS: [3]float64{1, 1, 1},
	}
	dup := &messages.PoseMessage{
		P1Timestamp:     messages.NewTimestamp(2.0),
		VelocityBodyMPS: [3]float64{9, 9, 9},
	}
	data := map[messages.MessageType]*MessageData{
		messages.TypePose: {Type: messages.TypePose, Messages: []messages.Message{first, dup}},
		messages.TypeGNSSInfo: {Type: messages.TypeGNSSInfo, Messages: []messages.Message{
			&messages.GNSSInfoMessage{P1Timestamp: messages.NewTimestamp(2.0), GDOP: 5},
		}},
	}

	require.NoError(t, TimeAlignData(data, AlignmentDrop))
	require.Len(t, data[messages.TypePose].Messages, 1)
	assert.Same(t, first, data[messages.TypePose].Messages[0].(*messages.PoseMessage))

	require.NoError(t, TimeAlignData(data, AlignmentInsert))
	require.Len(t, data[messages.TypePose].Messages, 1)
	assert.Same(t, first, data[messages.TypePose].Messages[0].(*messages.PoseMessage))
}

func TestParseTimeAlignmentMode(t *testing.T) {
	for _, mode := range []TimeAlignmentMode{AlignmentNone, AlignmentDrop, AlignmentInsert} {
		parsed, err := ParseTimeAlignmentMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
	_, err := ParseTimeAlignmentMode("bogus")
	assert.Error(t, err)
}
