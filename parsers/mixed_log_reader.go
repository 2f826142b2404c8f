package parsers

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/sisahap1/fusion-engine-client/internal/stats"
	"github.com/sisahap1/fusion-engine-client/messages"
)

// MixedLogReader reads a recorded log that may interleave FusionEngine
// frames with arbitrary non-protocol bytes. It owns the file handle
// and an optional attached original index with explicit transitions:
// absent at construction (unless a valid sidecar exists), attached
// after a read that built one, persisted best-effort.
type MixedLogReader struct {
	path    string
	source  *blockSource
	scanner *FrameScanner
	index   *FileIndex
	stats   *stats.Scan
	log     zerolog.Logger
}

// Option configures a MixedLogReader.
type Option func(*MixedLogReader)

// WithLogger attaches a logger; the default reader is silent.
func WithLogger(log zerolog.Logger) Option {
	return func(r *MixedLogReader) { r.log = log }
}

// NewMixedLogReader opens the log at path and attaches the sidecar
// index if a valid one exists. A missing, stale, or corrupt sidecar is
// not an error; the reader simply starts without an index.
func NewMixedLogReader(path string, opts ...Option) (*MixedLogReader, error) {
	r, err := newReader(path, opts...)
	if err != nil {
		return nil, err
	}

	idx, err := LoadIndex(path)
	switch {
	case err == nil:
		r.index = idx
		r.log.Debug().Str("path", path).Int("entries", idx.Len()).Msg("loaded index sidecar")
	case os.IsNotExist(err):
		// No sidecar yet.
	case errors.Is(err, ErrIndexStale) || errors.Is(err, ErrIndexCorrupt):
		r.log.Warn().Str("path", path).Err(err).Msg("ignoring unusable index sidecar")
	default:
		r.log.Warn().Str("path", path).Err(err).Msg("failed to read index sidecar")
	}
	return r, nil
}

func newReader(path string, opts ...Option) (*MixedLogReader, error) {
	source, err := openBlockSource(path)
	if err != nil {
		return nil, err
	}
	r := &MixedLogReader{
		path:    path,
		source:  source,
		scanner: newFrameScanner(source),
		stats:   stats.NewScan(source.Size()),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the underlying file handle.
func (r *MixedLogReader) Close() error {
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}

// HaveIndex reports whether an original index is currently attached,
// whether loaded from the sidecar or built by a read.
func (r *MixedLogReader) HaveIndex() bool {
	return r.index != nil
}

// Index returns the attached original index, or nil.
func (r *MixedLogReader) Index() *FileIndex {
	return r.index
}

// Stats returns the scan counters accumulated so far.
func (r *MixedLogReader) Stats() stats.Snapshot {
	return r.stats.Snapshot()
}

// scanFrames walks the file from the start, decoding every frame and
// resynchronizing over garbage. visit returning false stops the scan
// early. Per-byte garbage is absorbed here, never surfaced.
func (r *MixedLogReader) scanFrames(visit func(Frame) bool) error {
	if r.source == nil {
		return os.ErrClosed
	}
	r.stats.Start()
	defer r.stats.Stop()

	offset := int64(0)
	size := r.source.Size()
	for {
		frame, err := r.scanner.DecodeAt(offset)
		switch {
		case err == nil:
			r.stats.AddFrame(frame.Size)
			if !visit(frame) {
				return nil
			}
			offset = frame.Offset + frame.Size
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrNotAFrame):
			r.stats.IncResync()
			next, serr := r.scanner.nextSyncCandidate(offset + 1)
			if serr != nil {
				if errors.Is(serr, io.EOF) {
					r.stats.AddSkipped(size - offset)
					return nil
				}
				return serr
			}
			r.log.Debug().Int64("offset", offset).Int64("resumed", next).Msg("resync")
			r.stats.AddSkipped(next - offset)
			offset = next
		default:
			return err
		}
	}
}

// FirstTimes scans forward only until the first P1 reference time and
// the first system time are found, without building an index. Either
// value is NaN when no message in the file carries that kind of time.
func (r *MixedLogReader) FirstTimes() (t0, systemT0 float64, err error) {
	t0 = math.NaN()
	systemT0 = math.NaN()

	if r.index != nil {
		for _, entry := range r.index.Entries {
			if math.IsNaN(t0) && !math.IsNaN(entry.P1Time) {
				t0 = entry.P1Time
			}
			if math.IsNaN(systemT0) && !math.IsNaN(entry.SystemTime) {
				systemT0 = entry.SystemTime
			}
			if !math.IsNaN(t0) && !math.IsNaN(systemT0) {
				break
			}
		}
		return t0, systemT0, nil
	}

	err = r.scanFrames(func(frame Frame) bool {
		if math.IsNaN(t0) {
			if p1 := frame.P1Time(); !math.IsNaN(p1) {
				t0 = p1
			}
		}
		if math.IsNaN(systemT0) {
			if sys := frame.SystemTime(); !math.IsNaN(sys) {
				systemT0 = sys
			}
		}
		return math.IsNaN(t0) || math.IsNaN(systemT0)
	})
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	return t0, systemT0, nil
}

// Read returns the decoded messages matching types (all known types
// when types is empty), in file order.
//
// With an attached index the read seeks directly to the wanted frames.
// Without one it performs a full scan with resynchronization, building
// an original index entry for every frame encountered regardless of
// the filter; generateIndex then decides whether that index is
// attached and persisted or discarded. Persistence failures degrade to
// a warning and never affect the returned messages.
func (r *MixedLogReader) Read(types []messages.MessageType, generateIndex bool) ([]messages.Message, error) {
	if r.source == nil {
		return nil, os.ErrClosed
	}
	if r.index != nil {
		return r.readIndexed(types)
	}

	wanted := typeSet(types)
	built := &FileIndex{}
	var out []messages.Message
	err := r.scanFrames(func(frame Frame) bool {
		built.append(frame)
		if frame.Message != nil && (wanted == nil || wanted[frame.Header.Type]) {
			out = append(out, frame.Message)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	if generateIndex {
		r.index = built
		if err := SaveIndex(r.path, built); err != nil {
			r.log.Warn().Str("path", r.path).Err(err).Msg("failed to persist index sidecar")
		} else {
			r.log.Debug().Str("path", r.path).Int("entries", built.Len()).Msg("persisted index sidecar")
		}
	}
	return out, nil
}

func (r *MixedLogReader) readIndexed(types []messages.MessageType) ([]messages.Message, error) {
	filtered := r.index.Filter(types)
	out := make([]messages.Message, 0, filtered.Len())
	for _, entry := range filtered.Entries {
		frame, err := r.scanner.DecodeAt(int64(entry.Offset))
		if err != nil {
			if errors.Is(err, ErrNotAFrame) || errors.Is(err, io.EOF) {
				// The token matched but the data disagrees with the
				// index entry. Skip rather than fail the whole read.
				r.log.Warn().Uint64("offset", entry.Offset).Msg("index entry does not match data file")
				continue
			}
			return nil, err
		}
		r.stats.AddFrame(frame.Size)
		if frame.Message != nil {
			out = append(out, frame.Message)
		}
	}
	return out, nil
}

func typeSet(types []messages.MessageType) map[messages.MessageType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[messages.MessageType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// GenerateIndexFile performs a standalone full scan of the log at path
// and persists the resulting original index sidecar. It does not
// require or touch a live reader.
func GenerateIndexFile(path string, opts ...Option) error {
	r, err := newReader(path, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	built := &FileIndex{}
	if err := r.scanFrames(func(frame Frame) bool {
		built.append(frame)
		return true
	}); err != nil {
		return err
	}
	return SaveIndex(path, built)
}
