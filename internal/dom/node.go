package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// TextContent returns the concatenated text of n and its descendants,
// like the DOM textContent property.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// Attr gets an attribute value from a node
func Attr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute on a node
func SetAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the class list of a node
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass checks if a node has a specific CSS class
func HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range Classes(n) {
		if class == className {
			return true
		}
	}
	return false
}

// AddClass adds a class to a node unless it is already present
func AddClass(n *html.Node, className string) {
	if HasClass(n, className) {
		return
	}
	classes := append(Classes(n), className)
	SetAttr(n, "class", strings.Join(classes, " "))
}

// FindFirst finds the first node matching a predicate, depth first
func FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// IsElement reports whether n is an element with the given tag
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}
