package analyzer

import (
	"fmt"
	"log"
	"sync"
)

// Logger collects operational messages in memory so that an outer layer
// (a UI, a TUI, a test) can display or inspect them. Every line is also
// written to the standard logger.
//
// Nothing in the core fails silently: every degraded path reports here.
type Logger struct {
	mu     sync.Mutex
	lines  []string
	events chan string
}

// NewLogger creates a Logger with a buffered event channel.
func NewLogger() *Logger {
	return &Logger{events: make(chan string, 256)}
}

// Printf formats and records a single log line.
func (l *Logger) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
	// Best effort notification: a slow consumer never blocks the core.
	select {
	case l.events <- line:
	default:
	}
}

// Lines returns a copy of all recorded lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Events exposes new log lines as they happen. Lines are dropped for
// consumers that do not keep up.
func (l *Logger) Events() <-chan string { return l.events }
