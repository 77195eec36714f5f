package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// StyleProperty returns the value of prop in an inline style attribute
func StyleProperty(style, prop string) (string, bool) {
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return "", false
	}
	var (
		val   string
		found bool
	)
	// Later declarations win, as in the cascade.
	for _, d := range decls {
		if strings.EqualFold(d.Property, prop) {
			val, found = d.Value, true
		}
	}
	return val, found
}

// SetStyleProperty returns style with prop set to value. Other declarations
// keep their order. An unparseable style is kept verbatim and the new
// declaration is appended, which still wins in the cascade.
func SetStyleProperty(style, prop, value string) string {
	style = strings.TrimSpace(style)
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		if style == "" {
			return prop + ": " + value + ";"
		}
		return strings.TrimSuffix(style, ";") + "; " + prop + ": " + value + ";"
	}

	replaced := false
	kept := decls[:0]
	for _, d := range decls {
		if strings.EqualFold(d.Property, prop) {
			if replaced {
				continue
			}
			d.Value = value
			d.Important = false
			replaced = true
		}
		kept = append(kept, d)
	}
	if !replaced {
		kept = append(kept, &css.Declaration{Property: prop, Value: value})
	}
	return FormatStyle(kept)
}

// FormatStyle serializes declarations back into an inline style attribute
func FormatStyle(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.Property + ": " + d.Value
		if d.Important {
			s += " !important"
		}
		parts = append(parts, s+";")
	}
	return strings.Join(parts, " ")
}
