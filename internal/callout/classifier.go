package callout

import (
	"strings"

	"github.com/ppiankov/mdpolish/internal/model"
)

// Rule maps markers to a callout kind
type Rule struct {
	Kind     model.CalloutKind
	Markers  []string // Symbols matched against the text as written
	Keywords []string // Matched against the case-folded text
}

// DefaultRules returns the built-in rules in precedence order.
// The warning sign is matched without its emoji variation selector so
// both "⚠" and "⚠️" qualify.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:     model.CalloutNote,
			Markers:  []string{"📌"},
			Keywords: []string{"note:"},
		},
		{
			Kind:     model.CalloutTip,
			Markers:  []string{"💡"},
			Keywords: []string{"tip:", "เคล็ดลับ:"},
		},
		{
			Kind:     model.CalloutWarning,
			Markers:  []string{"⚠"},
			Keywords: []string{"warning:", "คำเตือน:"},
		},
		{
			Kind:     model.CalloutExercise,
			Markers:  []string{"🎯"},
			Keywords: []string{"exercise:", "ลองทำดู:"},
		},
	}
}

// Classifier assigns callout kinds to blockquote text
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier; with no rules it uses DefaultRules
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the kind of the first rule matching text
func (c *Classifier) Classify(text string) model.CalloutKind {
	kind, _ := c.Match(text)
	return kind
}

// Match returns the kind of the first matching rule and which marker
// matched it (e.g. "marker:📌" or "keyword:tip:").
func (c *Classifier) Match(text string) (model.CalloutKind, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.CalloutNone, ""
	}
	lower := strings.ToLower(text)

	for _, rule := range c.rules {
		for _, marker := range rule.Markers {
			if strings.Contains(text, marker) {
				return rule.Kind, "marker:" + marker
			}
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Kind, "keyword:" + keyword
			}
		}
	}

	return model.CalloutNone, ""
}
