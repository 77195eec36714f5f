package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Selector is a compiled CSS selector group that remembers its source text
type Selector struct {
	raw     string
	matcher cascadia.Selector
}

// Compile compiles a CSS selector group such as ".content, main"
func Compile(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	m, err := cascadia.Compile(raw)
	if err != nil {
		return Selector{}, fmt.Errorf("compile selector %q: %w", raw, err)
	}
	return Selector{raw: raw, matcher: m}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(raw string) Selector {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// CompileAll compiles an ordered list of locators, keeping their order
func CompileAll(raws []string) ([]Selector, error) {
	sels := make([]Selector, 0, len(raws))
	for _, raw := range raws {
		s, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		sels = append(sels, s)
	}
	return sels, nil
}

func (s Selector) String() string {
	return s.raw
}

// IsZero reports whether the selector was never compiled
func (s Selector) IsZero() bool {
	return s.matcher == nil
}
