package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/mdpolish/internal/model"
	"github.com/ppiankov/mdpolish/internal/pipeline"
)

const page = `<html><head><title>Ch 1</title></head><body>
<div class="content"><main><blockquote>💡 Tip: try it</blockquote></main></div>
</body></html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupBook(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":       page,
		"part1/ch01.html":  page,
		"part1/index.html": page,
		"css/chrome.css":   "body { color: red; }",
		"searchindex.json": `{"doc":1}`,
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestServer(t *testing.T, cfg model.ServeConfig, enh PageEnhancer) *Server {
	t.Helper()
	if enh == nil {
		mc := model.DefaultConfig()
		mc.Cache.Enabled = false
		p, err := pipeline.NewPipeline(mc, quietLogger())
		if err != nil {
			t.Fatalf("pipeline: %v", err)
		}
		enh = p
	}
	return New(cfg, setupBook(t), enh, 1<<20, quietLogger())
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestServe_EnhancesHTML(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)
	rec := get(t, s.Handler(), "http://book.local/part1/ch01.html")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<blockquote class="tip">`) {
		t.Error("expected classified callout in served page")
	}
	if !strings.Contains(body, `data-mdpolish="footer"`) {
		t.Error("expected footer in served page")
	}
	if !strings.Contains(body, "url=http%3A%2F%2Fbook.local%2Fpart1%2Fch01.html") {
		t.Error("expected share links built from the request URL")
	}
	if rec.Header().Get("X-Mdpolish-Footer") != string(model.FooterInjected) {
		t.Errorf("expected footer header, got %q", rec.Header().Get("X-Mdpolish-Footer"))
	}
	if rec.Header().Get("X-Mdpolish-Callouts") != "1" {
		t.Errorf("expected callout count header, got %q", rec.Header().Get("X-Mdpolish-Callouts"))
	}
}

func TestServe_ForwardedProto(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)
	rec := get(t, s.Handler(), "http://book.example.com/part1/ch01.html", "X-Forwarded-Proto", "https")
	if !strings.Contains(rec.Body.String(), "url=https%3A%2F%2Fbook.example.com") {
		t.Error("expected https page URL behind a proxy")
	}
}

func TestServe_DirectoryIndex(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)

	rec := get(t, s.Handler(), "/part1")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected redirect for directory without slash, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/part1/" {
		t.Errorf("expected redirect to /part1/, got %q", loc)
	}

	rec = get(t, s.Handler(), "/part1/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "mdpolish-footer") {
		t.Errorf("expected enhanced index page, got %d", rec.Code)
	}
}

func TestServe_PassesThroughAssets(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)

	rec := get(t, s.Handler(), "/css/chrome.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "body { color: red; }" {
		t.Errorf("expected asset untouched, got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Mdpolish-Footer") != "" {
		t.Error("expected no enhancement headers on assets")
	}
}

func TestServe_NotFound(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, nil)
	for _, target := range []string{"/missing.html", "/../../etc/passwd"} {
		if rec := get(t, s.Handler(), target); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

type failingEnhancer struct{}

func (failingEnhancer) EnhanceHTML(ctx context.Context, input []byte, src pipeline.PageSource) (*pipeline.Result, error) {
	return nil, errors.New("boom")
}

func TestServe_EnhanceFailureServesOriginal(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{}, failingEnhancer{})
	rec := get(t, s.Handler(), "/index.html")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != page {
		t.Error("expected original page when enhancement fails")
	}
}

func TestServe_CORS(t *testing.T) {
	s := newTestServer(t, model.ServeConfig{AllowedOrigins: []string{"https://docs.example.com"}}, nil)
	rec := get(t, s.Handler(), "/searchindex.json", "Origin", "https://docs.example.com")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://docs.example.com" {
		t.Errorf("expected CORS header for allowed origin, got %q", got)
	}

	rec = get(t, s.Handler(), "/searchindex.json", "Origin", "https://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for other origins, got %q", got)
	}
}
