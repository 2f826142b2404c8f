package parsers

import (
	"errors"
	"io"
	"math"

	"github.com/sisahap1/fusion-engine-client/messages"
)

// ErrNotAFrame reports that no valid frame starts at the requested
// offset. It is the scanner's non-fatal outcome: the caller advances
// and retries. Genuine I/O faults are returned as-is instead.
var ErrNotAFrame = errors.New("no valid frame at offset")

// resyncWindow bounds one sync-pattern search pass. Searching a window
// is equivalent to advancing one byte at a time, just batched.
const resyncWindow = 64 * 1024

// Frame is one validated on-disk record. Message is nil when the frame
// checksum validated but the type is outside the closed message set or
// the payload layout is unrecognized; such frames are still indexed.
type Frame struct {
	Header  messages.Header
	Offset  int64
	Size    int64
	Message messages.Message
}

// P1Time returns the frame's reference time, or NaN when absent.
func (f Frame) P1Time() float64 {
	if f.Message != nil {
		if t, ok := f.Message.P1Time(); ok {
			return t
		}
	}
	return math.NaN()
}

// SystemTime returns the frame's wall-clock time, or NaN when absent.
func (f Frame) SystemTime() float64 {
	if f.Message != nil {
		if t, ok := f.Message.SystemTimeSec(); ok {
			return t
		}
	}
	return math.NaN()
}

// FrameScanner decodes exactly one frame at an exact byte position.
type FrameScanner struct {
	source *blockSource
}

func newFrameScanner(source *blockSource) *FrameScanner {
	return &FrameScanner{source: source}
}

// DecodeAt attempts to decode one frame starting at offset. It returns
// io.EOF at or past the end of the file, ErrNotAFrame when the bytes
// at offset do not form a complete valid frame, and the decoded frame
// otherwise. It never consumes input on failure.
func (s *FrameScanner) DecodeAt(offset int64) (Frame, error) {
	size := s.source.Size()
	if offset >= size {
		return Frame{}, io.EOF
	}
	if offset+messages.HeaderSize > size {
		// A truncated tail can never complete: the file is finite.
		return Frame{}, ErrNotAFrame
	}

	headerBuf, err := sliceExact(s.source, offset, messages.HeaderSize)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrNotAFrame
		}
		return Frame{}, err
	}
	hdr, err := messages.ParseHeader(headerBuf)
	if err != nil {
		return Frame{}, ErrNotAFrame
	}

	frameSize := int64(messages.HeaderSize) + int64(hdr.PayloadSize)
	if offset+frameSize > size {
		return Frame{}, ErrNotAFrame
	}
	payload, err := sliceExact(s.source, offset+messages.HeaderSize, int(hdr.PayloadSize))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrNotAFrame
		}
		return Frame{}, err
	}
	// The payload refill may have evicted the header block.
	headerBuf = messages.MarshalHeader(hdr)
	if messages.FrameCRC(headerBuf, payload) != hdr.CRC {
		return Frame{}, ErrNotAFrame
	}

	frame := Frame{Header: hdr, Offset: offset, Size: frameSize}
	if messages.IsKnownType(hdr.Type) {
		if msg, err := messages.Decode(hdr.Type, payload); err == nil {
			frame.Message = msg
		}
	}
	return frame, nil
}

// nextSyncCandidate returns the first offset >= from where the sync
// byte pair appears, or io.EOF when the remainder of the file holds no
// candidate.
func (s *FrameScanner) nextSyncCandidate(from int64) (int64, error) {
	size := s.source.Size()
	for from < size-1 {
		window := resyncWindow
		if remain := size - from; remain < int64(window) {
			window = int(remain)
		}
		view, err := s.source.Slice(from, window)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		for i := 0; i+1 < len(view); i++ {
			if view[i] == messages.SyncByte0 && view[i+1] == messages.SyncByte1 {
				return from + int64(i), nil
			}
		}
		if len(view) < 2 {
			break
		}
		// Overlap by one byte so a pair split across windows is found.
		from += int64(len(view) - 1)
	}
	return 0, io.EOF
}
