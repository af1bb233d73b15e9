package analyzer

import (
	"strings"
	"testing"
)

func TestLoggerLines(t *testing.T) {
	l := NewLogger()
	l.Printf("import %q finished", "report.xml")
	l.Printf("%d exchanges found", 3)

	lines := l.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"report.xml"`) {
		t.Errorf("first line = %q", lines[0])
	}

	// Lines() returns a copy.
	lines[0] = "mutated"
	if l.Lines()[0] == "mutated" {
		t.Error("Lines() leaked internal state")
	}
}

func TestLoggerEventsNeverBlock(t *testing.T) {
	l := NewLogger()
	// Far more messages than the channel buffers, with no consumer.
	for i := 0; i < 1000; i++ {
		l.Printf("message %d", i)
	}
	select {
	case got := <-l.Events():
		if !strings.Contains(got, "message 0") {
			t.Errorf("first event = %q", got)
		}
	default:
		t.Fatal("no event buffered")
	}
}
