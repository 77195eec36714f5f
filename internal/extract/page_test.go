package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestPage_Title(t *testing.T) {
	doc := parse(t, `<html lang="th"><head><title>
		Ownership  -  Rust
		Tutorial</title></head><body>
		<svg><title>icon</title></svg>
	</body></html>`)

	info := Page(doc, "")
	if info.Title != "Ownership - Rust Tutorial" {
		t.Errorf("expected collapsed title, got %q", info.Title)
	}
	if info.Language != "th" {
		t.Errorf("expected lang th, got %q", info.Language)
	}
}

func TestPage_NoTitle(t *testing.T) {
	doc := parse(t, `<html><body><p>no head</p></body></html>`)
	info := Page(doc, "https://example.com/")
	if info.Title != "" || info.Canonical != "" {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestPage_Canonical(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		source string
		want   string
	}{
		{
			name: "absolute",
			html: `<head><link rel="canonical" href="https://book.example.com/ch01.html"></head>`,
			want: "https://book.example.com/ch01.html",
		},
		{
			name:   "relative resolved against source",
			html:   `<head><link rel="Canonical" href="../ch02.html"></head>`,
			source: "https://book.example.com/part/ch01.html",
			want:   "https://book.example.com/ch02.html",
		},
		{
			name: "relative without source dropped",
			html: `<head><link rel="canonical" href="ch02.html"></head>`,
			want: "",
		},
		{
			name: "first canonical wins",
			html: `<head><link rel="canonical" href="https://a.example/"><link rel="canonical" href="https://b.example/"></head>`,
			want: "https://a.example/",
		},
		{
			name: "other rel ignored",
			html: `<head><link rel="stylesheet" href="https://a.example/s.css"></head>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Page(parse(t, tt.html), tt.source)
			if info.Canonical != tt.want {
				t.Errorf("expected canonical %q, got %q", tt.want, info.Canonical)
			}
		})
	}
}
