package groundplane

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// logStream is one independently routed logger. Each stream tags its lines
// so interleaved output on a shared writer stays attributable.
type logStream struct {
	prefix string

	mu sync.RWMutex
	l  *log.Logger
}

var (
	opsStream   = &logStream{prefix: "[groundplane] "}
	diagStream  = &logStream{prefix: "[groundplane diag] "}
	traceStream = &logStream{prefix: "[groundplane trace] "}
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	opsStream.set(w.Ops)
	diagStream.set(w.Diag)
	traceStream.set(w.Trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func (s *logStream) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l = newLogger(s.prefix, w)
}

func (s *logStream) printf(format string, args ...any) {
	s.mu.RLock()
	l := s.l
	s.mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Opsf logs to the ops stream (configuration problems, lifecycle events).
func Opsf(format string, args ...any) { opsStream.printf(format, args...) }

// Diagf logs to the diag stream (per-frame outcomes, evictions).
func Diagf(format string, args ...any) { diagStream.printf(format, args...) }

// Tracef logs to the trace stream (per-track back-projection detail).
func Tracef(format string, args ...any) { traceStream.printf(format, args...) }
