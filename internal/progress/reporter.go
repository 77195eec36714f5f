package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter shows progress through a run of pages
type Reporter interface {
	Start(total int)
	Step(source string, err error)
	Finish()
}

// NewReporter returns a line reporter under CI or when w is not a terminal,
// a progress bar otherwise.
func NewReporter(w io.Writer, description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || !isTerminal(w) {
		return &LineReporter{w: w}
	}
	return &BarReporter{w: w, description: description}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// BarReporter draws a progress bar
type BarReporter struct {
	w           io.Writer
	description string
	mu          sync.Mutex
	bar         *progressbar.ProgressBar
}

func (r *BarReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(r.description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Step(source string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Describe(source)
		_ = r.bar.Add(1)
	}
}

func (r *BarReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per page, for CI logs
type LineReporter struct {
	w       io.Writer
	mu      sync.Mutex
	total   int
	current int
	failed  int
}

func (r *LineReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.current = 0
	r.failed = 0
	_, _ = fmt.Fprintf(r.w, "Enhancing %d pages\n", total)
}

func (r *LineReporter) Step(source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	if err != nil {
		r.failed++
		_, _ = fmt.Fprintf(r.w, "[%d/%d] ✗ %s: %v\n", r.current, r.total, source, err)
		return
	}
	_, _ = fmt.Fprintf(r.w, "[%d/%d] %s\n", r.current, r.total, source)
}

func (r *LineReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, "Done: %d pages, %d failed\n", r.current, r.failed)
}

// Nop discards progress
type Nop struct{}

func (Nop) Start(int)          {}
func (Nop) Step(string, error) {}
func (Nop) Finish()            {}
