package messages

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	// TimestampSize is the on-wire length of a Timestamp.
	TimestampSize = 8

	timestampInvalid = 0xFFFFFFFF
)

// Timestamp is a P1 reference time in seconds. The zero value is
// invalid; use NewTimestamp for a valid one.
type Timestamp struct {
	Seconds float64
	valid   bool
}

func NewTimestamp(seconds float64) Timestamp {
	return Timestamp{Seconds: seconds, valid: true}
}

// InvalidTimestamp returns the absent-time marker.
func InvalidTimestamp() Timestamp {
	return Timestamp{}
}

func (t Timestamp) IsValid() bool {
	return t.valid && !math.IsNaN(t.Seconds)
}

// marshal appends the wire form: u32 whole seconds, u32 fractional
// nanoseconds, both 0xFFFFFFFF when invalid.
func (t Timestamp) marshal(buf []byte) {
	if !t.IsValid() {
		binary.LittleEndian.PutUint32(buf[0:4], timestampInvalid)
		binary.LittleEndian.PutUint32(buf[4:8], timestampInvalid)
		return
	}
	sec := math.Floor(t.Seconds)
	frac := math.Round((t.Seconds - sec) * 1e9)
	if frac >= 1e9 {
		sec++
		frac = 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(sec))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(frac))
}

func (t *Timestamp) unmarshal(buf []byte) error {
	if len(buf) < TimestampSize {
		return io.ErrUnexpectedEOF
	}
	sec := binary.LittleEndian.Uint32(buf[0:4])
	frac := binary.LittleEndian.Uint32(buf[4:8])
	if sec == timestampInvalid && frac == timestampInvalid {
		*t = Timestamp{}
		return nil
	}
	t.Seconds = float64(sec) + float64(frac)*1e-9
	t.valid = true
	return nil
}
