package messages

import "fmt"

// Encoder serializes messages into on-wire frames. It stamps a
// monotonically increasing sequence number across calls, matching what
// a producing device writes into a recorded log. The read path never
// uses it.
type Encoder struct {
	sequence uint32
}

// Encode returns the complete frame bytes for msg: header, payload and
// checksum.
func (e *Encoder) Encode(msg Message) ([]byte, error) {
	payload, err := msg.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msg.Type(), err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%s payload size %d exceeds limit", msg.Type(), len(payload))
	}
	hdr := Header{
		ProtocolVersion: ProtocolVersion,
		Type:            msg.Type(),
		Sequence:        e.sequence,
		PayloadSize:     uint32(len(payload)),
	}
	e.sequence++

	headerBuf := MarshalHeader(hdr)
	crc := FrameCRC(headerBuf, payload)
	hdr.CRC = crc
	headerBuf = MarshalHeader(hdr)

	frame := make([]byte, 0, len(headerBuf)+len(payload))
	frame = append(frame, headerBuf...)
	frame = append(frame, payload...)
	return frame, nil
}
