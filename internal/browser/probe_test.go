package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mdpolish/internal/model"
)

func TestProbeScript(t *testing.T) {
	script, err := probeScript(`.content, main[data-x="1"]`)
	if err != nil {
		t.Fatalf("probeScript: %v", err)
	}

	for _, want := range []string{
		`document.querySelector(".content, main[data-x=\"1\"]")`,
		`["note","tip","warning","exercise"]`,
		`footer[data-mdpolish=\"footer\"]`,
		`getComputedStyle(content).opacity`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to contain %s\n%s", want, script)
		}
	}
}

func TestResult_Problems(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   int
	}{
		{"healthy", Result{ContentFound: true, Opacity: "1", Footers: 1}, 0},
		{"still fading", Result{ContentFound: true, Opacity: "0.4", Footers: 1}, 1},
		{"no content region", Result{ContentFound: false, Footers: 1}, 0},
		{"missing footer", Result{ContentFound: true, Opacity: "1"}, 1},
		{"duplicate footer", Result{ContentFound: true, Opacity: "1", Footers: 2}, 1},
		{"everything wrong", Result{ContentFound: true, Opacity: "0", Footers: 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Problems(); len(got) != tt.want {
				t.Errorf("expected %d problems, got %v", tt.want, got)
			}
		})
	}
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func TestProbe_Chrome(t *testing.T) {
	chrome := findChrome()
	if chrome == "" {
		t.Skip("no Chrome binary on PATH")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><head><title>Probe</title></head><body>
<div class="content" style="opacity: 1; transition: opacity 0.5s ease-in-out;">
<main><blockquote class="tip">💡 Tip</blockquote>
<footer class="mdpolish-footer" data-mdpolish="footer"></footer></main></div>
</body></html>`)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := Probe(ctx, server.URL, Options{ContentSelector: ".content", ExecPath: chrome, Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if result.Title != "Probe" {
		t.Errorf("expected title Probe, got %q", result.Title)
	}
	if result.Callouts[model.CalloutTip] != 1 {
		t.Errorf("expected one tip, got %v", result.Callouts)
	}
	if problems := result.Problems(); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}
