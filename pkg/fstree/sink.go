package fstree

import (
	"context"
	"fmt"
	"log/slog"
)

// Sink receives formatted diagnostic messages from tree operations.
//
// The tree never decides how messages are displayed, stored or filtered; it
// only calls Emitf. Implementations must tolerate being called with any
// format string and arguments.
type Sink interface {
	Emitf(format string, args ...any)
}

// NopSink discards all messages. It is safe to use wherever a Sink is
// required but reporting is not wanted.
var NopSink Sink = nopSink{}

type nopSink struct{}

func (nopSink) Emitf(string, ...any) {}

// SlogSink adapts a slog.Logger to the Sink interface, emitting every
// message at the configured level.
type SlogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewIssueSink returns a Sink that logs at warn level with the given
// component attribute.
func NewIssueSink(logger *slog.Logger, component string) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger.With("component", component), Level: slog.LevelWarn}
}

// NewTraceSink returns a Sink that logs at debug level with the given
// component attribute.
func NewTraceSink(logger *slog.Logger, component string) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger.With("component", component), Level: slog.LevelDebug}
}

// Emitf formats the message and hands it to the underlying logger.
func (s *SlogSink) Emitf(format string, args ...any) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Log(context.Background(), s.Level, fmt.Sprintf(format, args...))
}
