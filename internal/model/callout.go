package model

// CalloutKind categorizes a blockquote by the marker it carries
type CalloutKind string

const (
	CalloutNone     CalloutKind = ""         // No marker matched, no class attached
	CalloutNote     CalloutKind = "note"     // 📌 or "note:"
	CalloutTip      CalloutKind = "tip"      // 💡 or "tip:"
	CalloutWarning  CalloutKind = "warning"  // ⚠️ or "warning:"
	CalloutExercise CalloutKind = "exercise" // 🎯 or "exercise:"
)

// CalloutKinds lists the classifiable kinds in precedence order
var CalloutKinds = []CalloutKind{CalloutNote, CalloutTip, CalloutWarning, CalloutExercise}

func (k CalloutKind) String() string {
	if k == CalloutNone {
		return "none"
	}
	return string(k)
}

// ClassName returns the class attached to a classified blockquote
func (k CalloutKind) ClassName() string {
	return string(k)
}

// IsCallout reports whether the kind results in a visual treatment
func (k CalloutKind) IsCallout() bool {
	return k != CalloutNone
}

// ParseCalloutKind maps a class name back to a kind
func ParseCalloutKind(s string) (CalloutKind, bool) {
	for _, k := range CalloutKinds {
		if string(k) == s {
			return k, true
		}
	}
	return CalloutNone, false
}

// Callout records the outcome of classifying a single blockquote
type Callout struct {
	Index    int         `json:"index"`              // Position among matched blockquotes (0-based)
	Kind     CalloutKind `json:"kind,omitempty"`     // Resulting kind, empty if none
	Rule     string      `json:"rule,omitempty"`     // Which marker matched (e.g., "keyword:tip:")
	Existing bool        `json:"existing,omitempty"` // Already classified before this pass
	Excerpt  string      `json:"excerpt,omitempty"`  // Leading text of the blockquote
}
