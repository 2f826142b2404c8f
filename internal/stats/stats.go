// Package stats records scan counters for a single log pass.
package stats

import (
	"sync"
	"time"
)

// Scan accumulates counters while a reader walks a log file.
type Scan struct {
	mu           sync.Mutex
	start        time.Time
	end          time.Time
	totalBytes   int64
	frameBytes   int64
	skippedBytes int64
	frames       int64
	resyncs      int64
}

func NewScan(totalBytes int64) *Scan {
	if totalBytes < 0 {
		totalBytes = 0
	}
	return &Scan{totalBytes: totalBytes}
}

// Start opens a new timing window. Counters accumulate across windows;
// Duration covers only the most recent one.
func (s *Scan) Start() {
	s.mu.Lock()
	s.start = time.Now()
	s.end = time.Time{}
	s.mu.Unlock()
}

func (s *Scan) Stop() {
	s.mu.Lock()
	if !s.start.IsZero() && s.end.IsZero() {
		s.end = time.Now()
	}
	s.mu.Unlock()
}

// AddFrame records one decoded frame of the given byte length.
func (s *Scan) AddFrame(size int64) {
	if size <= 0 {
		return
	}
	s.mu.Lock()
	s.frameBytes += size
	s.frames++
	s.mu.Unlock()
}

// AddSkipped records bytes consumed by resynchronization.
func (s *Scan) AddSkipped(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.skippedBytes += n
	s.mu.Unlock()
}

func (s *Scan) IncResync() {
	s.mu.Lock()
	s.resyncs++
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Duration     time.Duration
	TotalBytes   int64
	FrameBytes   int64
	SkippedBytes int64
	Frames       int64
	Resyncs      int64
}

func (s *Scan) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Duration:     s.elapsedLocked(),
		TotalBytes:   s.totalBytes,
		FrameBytes:   s.frameBytes,
		SkippedBytes: s.skippedBytes,
		Frames:       s.frames,
		Resyncs:      s.resyncs,
	}
}

func (s *Scan) elapsedLocked() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	if s.end.IsZero() {
		return time.Since(s.start)
	}
	return s.end.Sub(s.start)
}
