package messages

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	posePayloadSize    = TimestampSize + 48
	poseAuxPayloadSize = TimestampSize + 24
)

// PoseMessage carries the navigation solution at one P1 epoch.
type PoseMessage struct {
	P1Timestamp     Timestamp
	PositionLLADeg  [3]float64
	VelocityBodyMPS [3]float64
}

func (m *PoseMessage) Type() MessageType { return TypePose }

func (m *PoseMessage) P1Time() (float64, bool) {
	if !m.P1Timestamp.IsValid() {
		return 0, false
	}
	return m.P1Timestamp.Seconds, true
}

func (m *PoseMessage) SystemTimeSec() (float64, bool) { return 0, false }

func (m *PoseMessage) setP1Time(t Timestamp) { m.P1Timestamp = t }

func (m *PoseMessage) MarshalPayload() ([]byte, error) {
	buf := make([]byte, posePayloadSize)
	m.P1Timestamp.marshal(buf[0:TimestampSize])
	cursor := TimestampSize
	cursor = putFloat64s(buf, cursor, m.PositionLLADeg[:])
	putFloat64s(buf, cursor, m.VelocityBodyMPS[:])
	return buf, nil
}

func (m *PoseMessage) UnmarshalPayload(buf []byte) error {
	if len(buf) < posePayloadSize {
		return io.ErrUnexpectedEOF
	}
	if err := m.P1Timestamp.unmarshal(buf[0:TimestampSize]); err != nil {
		return err
	}
	cursor := TimestampSize
	cursor = getFloat64s(buf, cursor, m.PositionLLADeg[:])
	getFloat64s(buf, cursor, m.VelocityBodyMPS[:])
	return nil
}

// PoseAuxMessage carries auxiliary solution data sampled on the same
// P1 clock as PoseMessage, but on an independent cadence.
type PoseAuxMessage struct {
	P1Timestamp    Timestamp
	VelocityENUMPS [3]float64
}

func (m *PoseAuxMessage) Type() MessageType { return TypePoseAux }

func (m *PoseAuxMessage) P1Time() (float64, bool) {
	if !m.P1Timestamp.IsValid() {
		return 0, false
	}
	return m.P1Timestamp.Seconds, true
}

func (m *PoseAuxMessage) SystemTimeSec() (float64, bool) { return 0, false }

func (m *PoseAuxMessage) setP1Time(t Timestamp) { m.P1Timestamp = t }

func (m *PoseAuxMessage) MarshalPayload() ([]byte, error) {
	buf := make([]byte, poseAuxPayloadSize)
	m.P1Timestamp.marshal(buf[0:TimestampSize])
	putFloat64s(buf, TimestampSize, m.VelocityENUMPS[:])
	return buf, nil
}

func (m *PoseAuxMessage) UnmarshalPayload(buf []byte) error {
	if len(buf) < poseAuxPayloadSize {
		return io.ErrUnexpectedEOF
	}
	if err := m.P1Timestamp.unmarshal(buf[0:TimestampSize]); err != nil {
		return err
	}
	getFloat64s(buf, TimestampSize, m.VelocityENUMPS[:])
	return nil
}

func putFloat64s(buf []byte, cursor int, vals []float64) int {
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[cursor:cursor+8], math.Float64bits(v))
		cursor += 8
	}
	return cursor
}

func getFloat64s(buf []byte, cursor int, vals []float64) int {
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[cursor : cursor+8]))
		cursor += 8
	}
	return cursor
}
