package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/mdpolish/internal/model"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("<html></html>"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWalk_BookDefaults(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"index.html",
		"ch01.html",
		"part1/ch02.html",
		"print.html",
		"toc.html",
		"404.html",
		"css/chrome.css",
		".git/index.html",
		"searchindex.js",
	)

	site := model.DefaultConfig().Site
	pages, err := Walk(WalkConfig{Root: root, Include: site.Include, Exclude: site.Exclude})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{"ch01.html", "index.html", "part1/ch02.html"}
	if len(pages) != len(want) {
		t.Fatalf("Expected %d pages, got %d: %+v", len(want), len(pages), pages)
	}
	for i, p := range pages {
		if p.RelPath != want[i] {
			t.Errorf("page %d: expected %s, got %s", i, want[i], p.RelPath)
		}
		if p.Path != filepath.Join(root, filepath.FromSlash(want[i])) {
			t.Errorf("page %d: unexpected disk path %s", i, p.Path)
		}
	}
}

func TestWalk_InvalidGlob(t *testing.T) {
	if _, err := Walk(WalkConfig{Root: t.TempDir(), Include: []string{"[unclosed"}}); err == nil {
		t.Error("Expected error for invalid glob")
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	if _, err := Walk(WalkConfig{Root: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		empty    bool
		want     bool
	}{
		{"a/b/print.html", []string{"**/print.html"}, false, true},
		{"print.html", []string{"**/print.html"}, false, true},
		{"a/ch.html", []string{"**/*.md"}, false, false},
		{"a/ch.html", nil, true, true},
		{"a/ch.html", nil, false, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns, tt.empty); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"https://book.example.com", "ch01.html", "https://book.example.com/ch01.html"},
		{"https://book.example.com/rust/", "part1/ch02.html", "https://book.example.com/rust/part1/ch02.html"},
		{"https://book.example.com/rust", "index.html", "https://book.example.com/rust/"},
		{"https://book.example.com/rust/", "part1/index.html", "https://book.example.com/rust/part1/"},
		{"https://book.example.com/", "a b.html", "https://book.example.com/a%20b.html"},
		{"", "ch01.html", ""},
	}

	for _, tt := range tests {
		got, err := PageURL(tt.base, tt.rel)
		if err != nil {
			t.Errorf("PageURL(%q, %q): %v", tt.base, tt.rel, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PageURL(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}

	if _, err := PageURL("/relative/", "ch01.html"); err == nil {
		t.Error("Expected error for relative base URL")
	}
}
