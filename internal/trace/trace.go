// Package trace provides the write-only tracing surface shared by the
// runtime subsystems. The bus and stats registry never return errors to
// their callers; the tracer is their single error surface.
package trace

import (
	"fmt"
	"log/slog"
	"sync"
)

// Level is the severity of a traced message.
type Level int

const (
	// LevelLog is informational output.
	LevelLog Level = iota
	// LevelWarning marks a recoverable misuse or skipped handler.
	LevelWarning
	// LevelError marks a dropped operation, such as an aborted broadcast.
	LevelError
)

// String returns the severity name.
func (l Level) String() string {
	switch l {
	case LevelLog:
		return "log"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Tracer receives severity-tagged, printf-style messages. Implementations
// must not fail; tracing is fire-and-forget.
type Tracer interface {
	Log(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
}

// Slog adapts a slog.Logger to the Tracer interface. Log maps to Info,
// Warning to Warn and Error to Error.
type Slog struct {
	logger *slog.Logger
}

// NewSlog wraps the given logger. A nil logger falls back to slog.Default().
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

func (t *Slog) Log(format string, args ...any) {
	t.logger.Info(fmt.Sprintf(format, args...))
}

func (t *Slog) Warning(format string, args ...any) {
	t.logger.Warn(fmt.Sprintf(format, args...))
}

func (t *Slog) Error(format string, args ...any) {
	t.logger.Error(fmt.Sprintf(format, args...))
}

// Entry is a single recorded trace message.
type Entry struct {
	Level   Level
	Message string
}

// Recorder captures traced messages in order. Intended for tests that
// assert on the severity and count of traces emitted by an operation.
//
// Thread-safe: the bus may be exercised from test goroutines.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level Level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Log(format string, args ...any)     { r.record(LevelLog, format, args...) }
func (r *Recorder) Warning(format string, args ...any) { r.record(LevelWarning, format, args...) }
func (r *Recorder) Error(format string, args ...any)   { r.record(LevelError, format, args...) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// CountAt returns the number of entries recorded at the given level.
func (r *Recorder) CountAt(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset discards all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Nop discards everything. Useful as a default when no tracer is supplied.
type Nop struct{}

func (Nop) Log(string, ...any)     {}
func (Nop) Warning(string, ...any) {}
func (Nop) Error(string, ...any)   {}
