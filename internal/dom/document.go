package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed page guarded by a lock, since deferred mutations
// (the fade-in) may land after the initial pass returns.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Parse parses an HTML page
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML page held in a string
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// View runs fn with the document locked. fn must not retain selections.
func (d *Document) View(fn func(doc *goquery.Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.doc)
}

// Root returns the document node. Reads that may race with Apply go through View.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// Find returns the nodes matching sel, in document order
func (d *Document) Find(sel Selector) []*html.Node {
	if sel.IsZero() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.FindMatcher(sel.matcher).Nodes
}

// First returns the first node matching sel, or nil
func (d *Document) First(sel Selector) *html.Node {
	nodes := d.Find(sel)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Apply applies mutations in order. Every mutation is attempted; failures
// are joined into the returned error.
func (d *Document) Apply(muts ...Mutation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for i, m := range muts {
		if err := m.Apply(); err != nil {
			errs = append(errs, fmt.Errorf("mutation %d (%s): %w", i, m, err))
		}
	}
	return errors.Join(errs...)
}

// Render writes the document as HTML
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.doc.Nodes[0])
}

// HTML renders the document to a string
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
