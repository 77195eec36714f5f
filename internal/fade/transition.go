package fade

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/mdpolish/internal/dom"
	"golang.org/x/net/html"
)

const (
	// Delay before the content region becomes opaque
	Delay = 50 * time.Millisecond
	// Duration of the CSS opacity transition
	Duration = 500 * time.Millisecond

	TransitionValue = "opacity 0.5s ease-in-out"
	Transparent     = "0"
	Opaque          = "1"
)

// afterFunc schedules f after d and returns a stop function (injectable for tests)
var afterFunc = func(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Plan returns the mutations applied immediately and the ones applied
// once the delay has elapsed.
func Plan(node *html.Node) (initial, final []dom.Mutation) {
	initial = []dom.Mutation{
		dom.SetStyleMutation{Node: node, Property: "opacity", Value: Transparent},
		dom.SetStyleMutation{Node: node, Property: "transition", Value: TransitionValue},
	}
	final = []dom.Mutation{
		dom.SetStyleMutation{Node: node, Property: "opacity", Value: Opaque},
	}
	return initial, final
}

// Transition is a scheduled fade-in. Callers may ignore it; the opacity
// change lands regardless.
type Transition struct {
	doc   *dom.Document
	final []dom.Mutation

	once sync.Once
	stop func() bool
	done chan struct{}
	err  error
}

// Start makes node transparent, enables the transition and schedules the
// switch to opaque after Delay.
func Start(doc *dom.Document, node *html.Node) (*Transition, error) {
	initial, final := Plan(node)
	if err := doc.Apply(initial...); err != nil {
		return nil, err
	}

	t := &Transition{
		doc:   doc,
		final: final,
		done:  make(chan struct{}),
	}
	t.stop = afterFunc(Delay, t.finish)
	return t, nil
}

func (t *Transition) finish() {
	t.once.Do(func() {
		t.err = t.doc.Apply(t.final...)
		close(t.done)
	})
}

// Done is closed once the content region is opaque
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the transition completes or ctx is done.
// A nil transition (no content region) completes immediately.
func (t *Transition) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle applies the final state now if the timer has not fired yet.
// It is a no-op after completion.
func (t *Transition) Settle() error {
	if t == nil {
		return nil
	}
	if t.stop != nil {
		t.stop()
	}
	t.finish()
	return t.err
}
