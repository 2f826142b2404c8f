package parsers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sisahap1/fusion-engine-client/messages"
)

const (
	indexMagic       = "P1IX"
	indexVersion     = 1
	indexHeaderSize  = 4 + 2 + 2 + 8 + 8 + 8
	indexEntrySize   = 32
	indexTrailerSize = 4
)

var (
	// ErrIndexStale reports a sidecar whose validity token no longer
	// matches the data file. The whole index is discarded.
	ErrIndexStale = errors.New("index sidecar does not match data file")
	// ErrIndexCorrupt reports a structurally invalid sidecar.
	ErrIndexCorrupt = errors.New("index sidecar corrupt")
)

// IndexEntry locates one decoded frame in the data file. P1Time and
// SystemTime are NaN when the frame carries no such time.
type IndexEntry struct {
	Offset     uint64
	Type       messages.MessageType
	P1Time     float64
	SystemTime float64
}

// FileIndex is the ordered sequence of entries for a data file. The
// original index holds one entry per decoded frame in file order, with
// strictly increasing offsets, regardless of any type filter active
// during the scan that built it.
type FileIndex struct {
	Entries []IndexEntry
}

func (idx *FileIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

func (idx *FileIndex) append(frame Frame) {
	idx.Entries = append(idx.Entries, IndexEntry{
		Offset:     uint64(frame.Offset),
		Type:       frame.Header.Type,
		P1Time:     frame.P1Time(),
		SystemTime: frame.SystemTime(),
	})
}

// Filter returns the order-preserving subsequence restricted to the
// given types. A nil or empty type set returns the index unchanged.
func (idx *FileIndex) Filter(types []messages.MessageType) *FileIndex {
	if idx == nil {
		return nil
	}
	if len(types) == 0 {
		return idx
	}
	wanted := make(map[messages.MessageType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	out := &FileIndex{Entries: make([]IndexEntry, 0, len(idx.Entries))}
	for _, entry := range idx.Entries {
		if wanted[entry.Type] {
			out.Entries = append(out.Entries, entry)
		}
	}
	return out
}

// IndexPath returns the sidecar path for a data file: the data path
// with its extension replaced by ".p1i".
func IndexPath(dataPath string) string {
	ext := filepath.Ext(dataPath)
	return strings.TrimSuffix(dataPath, ext) + ".p1i"
}

// validityToken captures the state of the data file the sidecar was
// built against. Any change to size or mtime invalidates the sidecar.
type validityToken struct {
	size    int64
	mtimeNS int64
}

func tokenForFile(dataPath string) (validityToken, error) {
	info, err := os.Stat(dataPath)
	if err != nil {
		return validityToken{}, err
	}
	return validityToken{size: info.Size(), mtimeNS: info.ModTime().UnixNano()}, nil
}

// LoadIndex reads the sidecar for dataPath. It returns ErrIndexStale
// or ErrIndexCorrupt when the sidecar cannot be trusted; callers treat
// both, and a missing sidecar, as "no index".
func LoadIndex(dataPath string) (*FileIndex, error) {
	raw, err := os.ReadFile(IndexPath(dataPath))
	if err != nil {
		return nil, err
	}
	if len(raw) < indexHeaderSize+indexTrailerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrIndexCorrupt, len(raw))
	}
	if string(raw[0:4]) != indexMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrIndexCorrupt)
	}
	if version := binary.LittleEndian.Uint16(raw[4:6]); version != indexVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrIndexCorrupt, version)
	}

	body := raw[:len(raw)-indexTrailerSize]
	storedCRC := binary.LittleEndian.Uint32(raw[len(raw)-indexTrailerSize:])
	if crc32.ChecksumIEEE(body) != storedCRC {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrIndexCorrupt)
	}

	stored := validityToken{
		size:    int64(binary.LittleEndian.Uint64(raw[8:16])),
		mtimeNS: int64(binary.LittleEndian.Uint64(raw[16:24])),
	}
	live, err := tokenForFile(dataPath)
	if err != nil {
		return nil, err
	}
	if stored != live {
		return nil, fmt.Errorf("%w: size %d/%d mtime %d/%d",
			ErrIndexStale, stored.size, live.size, stored.mtimeNS, live.mtimeNS)
	}

	count := binary.LittleEndian.Uint64(raw[24:32])
	if int64(len(body)-indexHeaderSize) != int64(count)*indexEntrySize {
		return nil, fmt.Errorf("%w: entry count %d does not match payload", ErrIndexCorrupt, count)
	}

	idx := &FileIndex{Entries: make([]IndexEntry, 0, count)}
	cursor := indexHeaderSize
	var prevOffset uint64
	for i := uint64(0); i < count; i++ {
		entry := IndexEntry{
			Offset:     binary.LittleEndian.Uint64(body[cursor : cursor+8]),
			Type:       messages.MessageType(binary.LittleEndian.Uint16(body[cursor+8 : cursor+10])),
			P1Time:     math.Float64frombits(binary.LittleEndian.Uint64(body[cursor+16 : cursor+24])),
			SystemTime: math.Float64frombits(binary.LittleEndian.Uint64(body[cursor+24 : cursor+32])),
		}
		if i > 0 && entry.Offset <= prevOffset {
			return nil, fmt.Errorf("%w: offsets not increasing at entry %d", ErrIndexCorrupt, i)
		}
		prevOffset = entry.Offset
		idx.Entries = append(idx.Entries, entry)
		cursor += indexEntrySize
	}
	return idx, nil
}

// SaveIndex persists idx as the sidecar for dataPath. The write is
// atomic: a temp file in the same directory is renamed over the final
// path, so a concurrent reader never observes a partial sidecar.
func SaveIndex(dataPath string, idx *FileIndex) error {
	token, err := tokenForFile(dataPath)
	if err != nil {
		return err
	}

	body := make([]byte, indexHeaderSize+idx.Len()*indexEntrySize)
	copy(body[0:4], indexMagic)
	binary.LittleEndian.PutUint16(body[4:6], indexVersion)
	binary.LittleEndian.PutUint64(body[8:16], uint64(token.size))
	binary.LittleEndian.PutUint64(body[16:24], uint64(token.mtimeNS))
	binary.LittleEndian.PutUint64(body[24:32], uint64(idx.Len()))
	cursor := indexHeaderSize
	for _, entry := range idx.Entries {
		binary.LittleEndian.PutUint64(body[cursor:cursor+8], entry.Offset)
		binary.LittleEndian.PutUint16(body[cursor+8:cursor+10], uint16(entry.Type))
		binary.LittleEndian.PutUint64(body[cursor+16:cursor+24], math.Float64bits(entry.P1Time))
		binary.LittleEndian.PutUint64(body[cursor+24:cursor+32], math.Float64bits(entry.SystemTime))
		cursor += indexEntrySize
	}

	var trailer [indexTrailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], crc32.ChecksumIEEE(body))

	finalPath := IndexPath(dataPath)
	tmpPath := finalPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := f.Write(trailer[:]); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, finalPath)
}
