// Package analysis provides the high-level read surface over recorded
// FusionEngine logs: typed message collections and multi-stream time
// alignment.
package analysis

import (
	"math"

	"github.com/sisahap1/fusion-engine-client/messages"
	"github.com/sisahap1/fusion-engine-client/parsers"
)

// MessageData holds the decoded messages of one type, in file order.
type MessageData struct {
	Type     messages.MessageType
	Messages []messages.Message
}

// FileReader orchestrates a MixedLogReader for whole-file analysis.
// T0 and SystemT0 are discovered at open time with a cheap first-match
// scan and are NaN when the file carries no such time; that is not an
// error.
type FileReader struct {
	Reader   *parsers.MixedLogReader
	T0       float64
	SystemT0 float64
}

// Open opens the log at path, attaches an existing sidecar index when
// one is valid, and determines T0/SystemT0 without forcing a full scan
// or index build.
func Open(path string, opts ...parsers.Option) (*FileReader, error) {
	reader, err := parsers.NewMixedLogReader(path, opts...)
	if err != nil {
		return nil, err
	}
	t0, systemT0, err := reader.FirstTimes()
	if err != nil {
		reader.Close()
		return nil, err
	}
	return &FileReader{Reader: reader, T0: t0, SystemT0: systemT0}, nil
}

// Close releases the underlying reader.
func (r *FileReader) Close() error {
	return r.Reader.Close()
}

// HasT0 reports whether the file carries any P1 reference time.
func (r *FileReader) HasT0() bool {
	return !math.IsNaN(r.T0)
}

// ReadOptions control one Read call.
type ReadOptions struct {
	// MessageTypes restricts the result; empty means every known type.
	MessageTypes []messages.MessageType
	// GenerateIndex persists and attaches an original index built as a
	// byproduct of a full scan.
	GenerateIndex bool
}

// DefaultReadOptions reads every known type and generates an index.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{GenerateIndex: true}
}

// Read returns the requested messages grouped by type. Every requested
// type appears in the result, with an empty entry when the file holds
// no matching frames.
func (r *FileReader) Read(opts ReadOptions) (map[messages.MessageType]*MessageData, error) {
	requested := opts.MessageTypes
	if len(requested) == 0 {
		requested = messages.KnownTypes()
	}

	result := make(map[messages.MessageType]*MessageData, len(requested))
	for _, t := range requested {
		result[t] = &MessageData{Type: t}
	}

	msgs, err := r.Reader.Read(opts.MessageTypes, opts.GenerateIndex)
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		data, ok := result[msg.Type()]
		if !ok {
			continue
		}
		data.Messages = append(data.Messages, msg)
	}
	return result, nil
}
