package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mdpolish/0.1 (+https://github.com/ppiankov/mdpolish)", "mdpolish"},
		{"curl/8.0", "curl"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fetches.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: mdpolish\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker("mdpolish/0.1 (+test)", 5*time.Second, nil)
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, server.URL+"/ch01.html")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("expected public page allowed for mdpolish group")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	if rc.IsAllowed(ctx, server.URL+"/private/notes.html") {
		t.Error("expected private page disallowed")
	}

	if fetches.Load() != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", fetches.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rc := NewRobotsChecker("mdpolish/0.1", 5*time.Second, nil)
	if !rc.IsAllowed(context.Background(), server.URL+"/anything.html") {
		t.Error("expected fetch allowed without robots.txt")
	}
}

func TestRobotsChecker_BadScheme(t *testing.T) {
	rc := NewRobotsChecker("mdpolish/0.1", time.Second, nil)
	if _, _, err := rc.CanFetch(context.Background(), "file:///etc/passwd"); err == nil {
		t.Error("expected error for non-http URL")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "internal.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://book.example.com/ch01.html", "http://proxy.local:3128"},
		{"https://book.example.com/ch01.html", "http://secure-proxy.local:3128"},
		{"https://internal.example/page.html", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := proxy(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.target, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.target, gotStr, tt.want)
		}
	}
}
