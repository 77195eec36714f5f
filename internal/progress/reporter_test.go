package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewReporter_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := NewReporter(&buf, "Enhancing").(*LineReporter); !ok {
		t.Error("expected a line reporter for a non-terminal writer")
	}
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &LineReporter{w: &buf}

	r.Start(2)
	r.Step("book/ch01.html", nil)
	r.Step("book/ch02.html", errors.New("read page: permission denied"))
	r.Finish()

	out := buf.String()
	for _, want := range []string{
		"Enhancing 2 pages",
		"[1/2] book/ch01.html",
		"[2/2] ✗ book/ch02.html: read page: permission denied",
		"Done: 2 pages, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestBarReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &BarReporter{w: &buf, description: "Enhancing"}
	r.Start(3)
	for i := 0; i < 3; i++ {
		r.Step("page.html", nil)
	}
	r.Finish()

	if r.bar.State().CurrentNum != 3 {
		t.Errorf("expected bar at 3, got %d", r.bar.State().CurrentNum)
	}
}
