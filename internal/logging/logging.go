// Package logging configures the process-wide logger used by the CLI.
// Library packages take an injected zerolog.Logger instead and default
// to a disabled one.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the sink and verbosity of the process logger.
type Options struct {
	Level string
	// File enables an additional rotating log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Configure builds the process logger. Console output goes to stderr;
// when a file is configured it receives the same stream with rotation.
func Configure(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var sink io.Writer = console
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		sink = zerolog.MultiLevelWriter(console, rotated)
	}
	return zerolog.New(sink).Level(level).With().Timestamp().Logger()
}
