package messages

import (
	"encoding/binary"
	"io"
)

const eventFixedPayloadSize = 16

// EventNotificationMessage records a device event. It is stamped with
// the host system clock only and never participates in time alignment.
type EventNotificationMessage struct {
	SystemTimeNS int64
	EventFlags   uint64
	Description  []byte
}

func (m *EventNotificationMessage) Type() MessageType { return TypeEventNotification }

func (m *EventNotificationMessage) P1Time() (float64, bool) { return 0, false }

func (m *EventNotificationMessage) SystemTimeSec() (float64, bool) {
	if m.SystemTimeNS <= 0 {
		return 0, false
	}
	return float64(m.SystemTimeNS) * 1e-9, true
}

func (m *EventNotificationMessage) MarshalPayload() ([]byte, error) {
	buf := make([]byte, eventFixedPayloadSize+len(m.Description))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(m.SystemTimeNS))
	binary.LittleEndian.PutUint64(buf[8:16], m.EventFlags)
	copy(buf[eventFixedPayloadSize:], m.Description)
	return buf, nil
}

func (m *EventNotificationMessage) UnmarshalPayload(buf []byte) error {
	if len(buf) < eventFixedPayloadSize {
		return io.ErrUnexpectedEOF
	}
	m.SystemTimeNS = int64(binary.LittleEndian.Uint64(buf[0:8]))
	m.EventFlags = binary.LittleEndian.Uint64(buf[8:16])
	if extra := len(buf) - eventFixedPayloadSize; extra > 0 {
		m.Description = make([]byte, extra)
		copy(m.Description, buf[eventFixedPayloadSize:])
	} else {
		m.Description = nil
	}
	return nil
}
