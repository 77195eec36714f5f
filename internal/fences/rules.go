package fences

import (
	"regexp"
	"strings"
)

const (
	infoText       = "text"
	infoRust       = "rust"
	infoRustIgnore = "rust,ignore"
)

// outputPatterns match the first line of a block that is program output,
// a directory tree or a diagram rather than code.
var outputPatterns = compileAll(
	`^\d+`,
	`^[A-Z][a-z]+:`,
	`^hi from`,
	`^[├└│]`,
	`^examples/`,
	`^my_project/`,
	`^[🦀📝📦✨]`,
	`^Index \d+:`,
	`^Count after`,
	`^inner:`,
	`^outer:`,
	`^\s*[_~^\\]`,
	`^thread.*panicked`,
	`^error\[E\d+\]`,
	`^\s+-->`,
)

// incompletePatterns match Rust snippets that do not compile on their own
var incompletePatterns = compileAll(
	`(?m)^fn \w+.*\{$`,
	`(?m)^\s*//.*→`,
	`(?m)^if let PATTERN`,
	`(?m)^while let PATTERN`,
	`EXPRESSION`,
	`____`,
	`(?m)^&i32\s+//`,
	`(?m)^fn \w+\(.+\)\s*$`,
	`tokio::`,
	`anyhow::`,
	`thiserror::`,
	`(?m)^use (tokio|anyhow|thiserror)`,
	`#\[tokio::main\]`,
	`some_value`,
	`some_option`,
)

var bareSignature = regexp.MustCompile(`^fn \w+\([^)]*\)(\s*->\s*[^{]+)?$`)

// diagramChars are box-drawing and arrow characters; two distinct ones on
// the first line mark a diagram.
const diagramChars = "┌┐└┘├┤│─═║╔╗╚╝╠╣▶◀►◄→←↑↓∿"

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Decide returns the info string a fence should carry, and false when the
// fence is left untouched.
func Decide(info, body string) (string, bool) {
	info = strings.TrimSpace(info)
	switch {
	case strings.Contains(info, ","):
		return "", false
	case info != "" && info != infoRust:
		return "", false
	case looksLikeOutput(body):
		return infoText, true
	case info == infoRust && isIncompleteRust(body):
		return infoRustIgnore, true
	case info == "":
		return infoText, true
	}
	return "", false
}

func looksLikeOutput(body string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return false
	}

	for _, re := range outputPatterns {
		if re.MatchString(first) {
			return true
		}
	}

	seen := make(map[rune]bool)
	for _, r := range first {
		if strings.ContainsRune(diagramChars, r) {
			seen[r] = true
		}
	}
	return len(seen) >= 2
}

func isIncompleteRust(body string) bool {
	for _, re := range incompletePatterns {
		if re.MatchString(body) {
			return true
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if bareSignature.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}
