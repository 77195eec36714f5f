package site

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Page is a file discovered under a book directory
type Page struct {
	Path    string // Path on disk
	RelPath string // Slash-separated path relative to the root
}

// WalkConfig controls Walk
type WalkConfig struct {
	Root    string
	Include []string // Doublestar globs; empty includes everything
	Exclude []string
}

// Walk returns the files under cfg.Root matching the include globs and none
// of the exclude globs, sorted by relative path. Hidden directories are skipped.
func Walk(cfg WalkConfig) ([]Page, error) {
	for _, p := range append(append([]string(nil), cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}

	var pages []Page
	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if p != cfg.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(cfg.Root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !MatchesAny(rel, cfg.Include, true) || MatchesAny(rel, cfg.Exclude, false) {
			return nil
		}

		pages = append(pages, Page{Path: p, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", cfg.Root, err)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].RelPath < pages[j].RelPath })
	return pages, nil
}

// MatchesAny reports whether the slash path matches one of patterns. An
// empty pattern list yields empty.
func MatchesAny(relPath string, patterns []string, empty bool) bool {
	if len(patterns) == 0 {
		return empty
	}
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(filepath.ToSlash(pattern), relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// PageURL maps a page's relative path onto the book's public base URL.
// index.html maps to its directory. An empty base URL yields "".
func PageURL(baseURL, relPath string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		base.RawPath = ""
	}

	rel := strings.TrimPrefix(filepath.ToSlash(relPath), "/")
	if path.Base(rel) == "index.html" {
		rel = strings.TrimSuffix(rel, "index.html")
	}

	return base.ResolveReference(&url.URL{Path: rel}).String(), nil
}
