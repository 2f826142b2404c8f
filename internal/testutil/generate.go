// Package testutil builds deterministic sample logs shared by package
// tests.
package testutil

import (
	"os"

	"github.com/sisahap1/fusion-engine-client/messages"
)

// GarbageBlob is the non-protocol filler interleaved between frames by
// WriteLog when garbage is requested.
var GarbageBlob = []byte("12345")

// SampleMessages returns the canonical test dataset: two pose epochs
// at p1 times 1s/2s, two pose-aux at 2s/3s, two GNSS info at 2s/3s and
// three event records carrying only system time.
func SampleMessages() []messages.Message {
	return []messages.Message{
		&messages.EventNotificationMessage{SystemTimeNS: 1_000_000_000},
		&messages.PoseMessage{
			P1Timestamp:     messages.NewTimestamp(1.0),
			PositionLLADeg:  [3]float64{37.7, -122.4, 10.0},
			VelocityBodyMPS: [3]float64{1.0, 2.0, 3.0},
		},
		&messages.PoseMessage{
			P1Timestamp:     messages.NewTimestamp(2.0),
			PositionLLADeg:  [3]float64{37.8, -122.5, 11.0},
			VelocityBodyMPS: [3]float64{4.0, 5.0, 6.0},
		},
		&messages.PoseAuxMessage{
			P1Timestamp:    messages.NewTimestamp(2.0),
			VelocityENUMPS: [3]float64{14.0, 15.0, 16.0},
		},
		&messages.EventNotificationMessage{SystemTimeNS: 3_000_000_000},
		&messages.PoseAuxMessage{
			P1Timestamp:    messages.NewTimestamp(3.0),
			VelocityENUMPS: [3]float64{17.0, 18.0, 19.0},
		},
		&messages.GNSSInfoMessage{
			P1Timestamp: messages.NewTimestamp(2.0),
			GDOP:        5.0,
			PDOP:        2.5,
		},
		&messages.GNSSInfoMessage{
			P1Timestamp: messages.NewTimestamp(3.0),
			GDOP:        6.0,
			PDOP:        2.7,
		},
		&messages.EventNotificationMessage{SystemTimeNS: 4_000_000_000},
	}
}

// WriteLog encodes msgs into a log file at path. When withGarbage is
// set, non-protocol blobs are interleaved before, between, and after
// the frames, exercising resynchronization.
func WriteLog(path string, msgs []messages.Message, withGarbage bool) error {
	var encoder messages.Encoder
	var buf []byte

	garbageSlots := map[int]bool{0: true, 2: true, 4: true, 7: true}
	for i, msg := range msgs {
		if withGarbage && garbageSlots[i] {
			buf = append(buf, GarbageBlob...)
		}
		frame, err := encoder.Encode(msg)
		if err != nil {
			return err
		}
		buf = append(buf, frame...)
	}
	if withGarbage {
		buf = append(buf, GarbageBlob...)
	}
	return os.WriteFile(path, buf, 0o644)
}

// WriteSampleLog writes the canonical dataset to path and returns it.
func WriteSampleLog(path string, withGarbage bool) ([]messages.Message, error) {
	msgs := SampleMessages()
	if err := WriteLog(path, msgs, withGarbage); err != nil {
		return nil, err
	}
	return msgs, nil
}
