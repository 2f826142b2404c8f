package messages

import (
	"encoding/binary"
	"io"
	"math"
)

const gnssInfoPayloadSize = TimestampSize + 16

// GNSSInfoMessage carries receiver quality-of-fix metrics at one P1
// epoch.
type GNSSInfoMessage struct {
	P1Timestamp Timestamp
	GDOP        float64
	PDOP        float64
}

func (m *GNSSInfoMessage) Type() MessageType { return TypeGNSSInfo }

func (m *GNSSInfoMessage) P1Time() (float64, bool) {
	if !m.P1Timestamp.IsValid() {
		return 0, false
	}
	return m.P1Timestamp.Seconds, true
}

func (m *GNSSInfoMessage) SystemTimeSec() (float64, bool) { return 0, false }

func (m *GNSSInfoMessage) setP1Time(t Timestamp) { m.P1Timestamp = t }

func (m *GNSSInfoMessage) MarshalPayload() ([]byte, error) {
	buf := make([]byte, gnssInfoPayloadSize)
	m.P1Timestamp.marshal(buf[0:TimestampSize])
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(m.GDOP))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(m.PDOP))
	return buf, nil
}

func (m *GNSSInfoMessage) UnmarshalPayload(buf []byte) error {
	if len(buf) < gnssInfoPayloadSize {
		return io.ErrUnexpectedEOF
	}
	if err := m.P1Timestamp.unmarshal(buf[0:TimestampSize]); err != nil {
		return err
	}
	m.GDOP = math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
	m.PDOP = math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
	return nil
}
