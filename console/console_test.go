package console

import (
	"strings"
	"testing"
)

func TestWriter_WriteConsole_WritesVerbatim(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)

	if err := w.WriteConsole("HELL\n"); err != nil {
		t.Fatalf("WriteConsole() error = %v", err)
	}
	if err := w.WriteConsole("\n\nProcess 1 terminated: Normal termination\nTTC: 3, LLC: 1\n"); err != nil {
		t.Fatalf("WriteConsole() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "HELL\n\n\nProcess 1 terminated: Normal termination\nTTC: 3, LLC: 1\n"
	if buf.String() != want {
		t.Errorf("WriteConsole() wrote %q, want %q", buf.String(), want)
	}
}

type recordingSink struct {
	lines []string
}

func (r *recordingSink) WriteConsole(line string) error {
	r.lines = append(r.lines, line)
	return nil
}

func TestMulti_FansOutToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := Multi{a, b}

	if err := m.WriteConsole("HI"); err != nil {
		t.Fatalf("WriteConsole() error = %v", err)
	}

	for _, s := range []*recordingSink{a, b} {
		if len(s.lines) != 1 || s.lines[0] != "HI" {
			t.Errorf("sink got %v, want [HI]", s.lines)
		}
	}
}
