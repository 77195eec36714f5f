package callout

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/mdpolish/internal/dom"
	"github.com/ppiankov/mdpolish/internal/model"
	"golang.org/x/net/html"
)

const excerptRunes = 60

// Snapshot is the part of a blockquote the classifier looks at
type Snapshot struct {
	Node    *html.Node
	Text    string
	Classes []string
}

// Snapshots captures blockquote nodes for planning
func Snapshots(nodes []*html.Node) []Snapshot {
	snaps := make([]Snapshot, 0, len(nodes))
	for _, n := range nodes {
		snaps = append(snaps, Snapshot{
			Node:    n,
			Text:    dom.TextContent(n),
			Classes: dom.Classes(n),
		})
	}
	return snaps
}

// existingKind returns the callout kind already carried by the classes
func (s Snapshot) existingKind() (model.CalloutKind, bool) {
	for _, class := range s.Classes {
		if kind, ok := model.ParseCalloutKind(class); ok {
			return kind, true
		}
	}
	return model.CalloutNone, false
}

// Plan classifies every snapshot and returns the class mutations to apply
// along with one result per snapshot. Blockquotes that already carry a
// callout class are reported but not touched again.
func (c *Classifier) Plan(snaps []Snapshot) ([]dom.Mutation, []model.Callout) {
	var muts []dom.Mutation
	results := make([]model.Callout, 0, len(snaps))

	for i, s := range snaps {
		result := model.Callout{Index: i, Excerpt: excerpt(s.Text)}

		if kind, ok := s.existingKind(); ok {
			result.Kind = kind
			result.Existing = true
			results = append(results, result)
			continue
		}

		kind, rule := c.Match(s.Text)
		result.Kind = kind
		result.Rule = rule
		if kind.IsCallout() {
			muts = append(muts, dom.AddClassMutation{Node: s.Node, Class: kind.ClassName()})
		}
		results = append(results, result)
	}

	return muts, results
}

// excerpt collapses whitespace and truncates to a short preview
func excerpt(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:excerptRunes]) + "…"
}
