package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageInfo holds what the enhancer needs to know about a page
type PageInfo struct {
	Title     string // Whitespace-collapsed <title>, like document.title
	Canonical string // Absolute link[rel=canonical] href, if any
	Language  string // <html lang>
}

// Page extracts page info from a parsed document. sourceURL resolves a
// relative canonical link and may be empty.
func Page(doc *html.Node, sourceURL string) PageInfo {
	var info PageInfo
	var canonical string
	titleSeen := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if info.Language == "" {
					info.Language = strings.TrimSpace(attr(n, "lang"))
				}
			case "title":
				// Only the first <title> counts, and <svg><title> is not the document title.
				if !titleSeen && n.Namespace == "" {
					titleSeen = true
					info.Title = collapseSpace(textOf(n))
				}
				return
			case "link":
				if canonical == "" && hasToken(attr(n, "rel"), "canonical") {
					canonical = strings.TrimSpace(attr(n, "href"))
				}
			case "script", "style", "noscript":
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	if canonical != "" {
		info.Canonical = resolveURL(sourceURL, canonical)
	}
	return info
}

// resolveURL resolves href against base, keeping only http(s) results
func resolveURL(base, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != "" {
		if b, err := url.Parse(base); err == nil {
			parsed = b.ResolveReference(parsed)
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return buf.String()
}

// collapseSpace strips and collapses ASCII whitespace
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
