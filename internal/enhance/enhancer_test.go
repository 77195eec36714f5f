package enhance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mdpolish/internal/dom"
	"github.com/ppiankov/mdpolish/internal/footer"
	"github.com/ppiankov/mdpolish/internal/model"
)

const bookPage = `<!DOCTYPE html>
<html lang="th">
<head><title>Ownership</title></head>
<body>
<div id="page-wrapper" class="page-wrapper">
  <div class="page">
    <div id="content" class="content">
      <main>
        <h1>Ownership</h1>
        <blockquote><p>📌 Note: remember this</p></blockquote>
        <blockquote><p>Just a quote</p></blockquote>
        <blockquote><p>💡 Tip: and ⚠️ Warning: both</p></blockquote>
        <blockquote><p>คำเตือน: ระวัง</p></blockquote>
        <blockquote><p>🎯 ลองทำดู: เขียนฟังก์ชัน</p></blockquote>
      </main>
    </div>
  </div>
</div>
</body>
</html>`

func newTestEnhancer(t *testing.T, mutate func(cfg *model.Config)) *Enhancer {
	t.Helper()
	cfg := model.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewFromConfig(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new enhancer: %v", err)
	}
	return e
}

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func enhance(t *testing.T, e *Enhancer, doc *dom.Document, page PageSource) *model.PageReport {
	t.Helper()
	report, tr, err := e.Enhance(context.Background(), doc, page)
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Wait(ctx); err != nil {
		t.Fatalf("wait for fade: %v", err)
	}
	return report
}

func footers(doc *dom.Document) int {
	return len(doc.Find(dom.MustCompile(`footer[data-mdpolish="footer"]`)))
}

func TestEnhance_Callouts(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)
	report := enhance(t, e, doc, PageSource{Source: "ch01.html"})

	quotes := doc.Find(dom.MustCompile("blockquote"))
	if len(quotes) != 5 {
		t.Fatalf("expected 5 blockquotes, got %d", len(quotes))
	}

	want := [][]string{
		{"note"},
		nil,
		{"tip"},
		{"warning"},
		{"exercise"},
	}
	for i, q := range quotes {
		got := dom.Classes(q)
		if strings.Join(got, " ") != strings.Join(want[i], " ") {
			t.Errorf("blockquote %d: expected classes %v, got %v", i, want[i], got)
		}
	}

	if report.Classified() != 4 {
		t.Errorf("expected 4 classified callouts, got %d", report.Classified())
	}
	if report.Counts[model.CalloutNote] != 1 || report.Counts[model.CalloutTip] != 1 {
		t.Errorf("unexpected counts: %v", report.Counts)
	}
	if len(report.Callouts) != 5 {
		t.Errorf("expected one result per blockquote, got %d", len(report.Callouts))
	}
}

func TestEnhance_NoBlockquotes(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, `<html><body><div class="content"><main><p>plain</p></main></div></body></html>`)
	report := enhance(t, e, doc, PageSource{Source: "plain.html"})

	if report.Classified() != 0 || len(report.Callouts) != 0 {
		t.Errorf("expected no callouts, got %+v", report.Callouts)
	}
}

func TestEnhance_BlockquoteOutsideScope(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, `<html><body><nav><blockquote>📌 Note: sidebar</blockquote></nav><div class="content"><main></main></div></body></html>`)
	enhance(t, e, doc, PageSource{Source: "scope.html"})

	q := doc.First(dom.MustCompile("nav blockquote"))
	if len(dom.Classes(q)) != 0 {
		t.Errorf("expected blockquote outside content to stay unclassified, got %v", dom.Classes(q))
	}
}

func TestEnhance_FadeIn(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)
	report := enhance(t, e, doc, PageSource{Source: "ch01.html"})

	if !report.FadeApplied {
		t.Fatal("expected fade to be applied")
	}

	style, _ := dom.Attr(doc.First(dom.MustCompile(".content")), "style")
	if v, _ := dom.StyleProperty(style, "opacity"); v != "1" {
		t.Errorf("expected opacity 1 after transition, got %q (style %q)", v, style)
	}
	if v, _ := dom.StyleProperty(style, "transition"); v != "opacity 0.5s ease-in-out" {
		t.Errorf("expected transition declaration, got %q", v)
	}
}

func TestEnhance_NoContentRegion(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, `<html><body><main><blockquote>💡 tip: x</blockquote></main></body></html>`)

	report, tr, err := e.Enhance(context.Background(), doc, PageSource{Source: "bare.html"})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if tr != nil {
		t.Error("expected no transition without a content region")
	}
	if report.FadeApplied {
		t.Error("expected fade to be skipped")
	}
	if len(report.Diagnostics) == 0 {
		t.Error("expected a diagnostic for the skipped fade")
	}
	if report.Counts[model.CalloutTip] != 1 {
		t.Error("expected classification to run regardless of fade")
	}
}

func TestEnhance_FooterWithShareLinks(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)
	report := enhance(t, e, doc, PageSource{
		Source:  "ch01.html",
		PageURL: "https://example.com/a b",
		Title:   "A & B",
	})

	if report.Footer.Status != model.FooterInjected {
		t.Fatalf("expected footer injected, got %s", report.Footer.Status)
	}
	if report.Footer.MountPoint != "main" {
		t.Errorf("expected main mount point, got %q", report.Footer.MountPoint)
	}
	if len(report.Footer.ShareLinks) != 3 {
		t.Fatalf("expected 3 share links, got %d", len(report.Footer.ShareLinks))
	}
	for _, l := range report.Footer.ShareLinks {
		if !strings.Contains(l.Href, "https%3A%2F%2Fexample.com%2Fa%20b") {
			t.Errorf("%s link missing encoded URL: %s", l.Platform, l.Href)
		}
		if strings.ContainsAny(l.Href[strings.Index(l.Href, "?"):], " #") {
			t.Errorf("%s link has unescaped characters: %s", l.Platform, l.Href)
		}
	}
	if l := report.Footer.ShareLinks[0]; !strings.HasSuffix(l.Href, "&text=A%20%26%20B") {
		t.Errorf("expected encoded title in twitter link, got %s", l.Href)
	}

	main := doc.First(dom.MustCompile("main"))
	if !footer.IsMarked(main.LastChild) {
		t.Error("expected footer appended as last child of the mount point")
	}
}

func TestEnhance_MountPointOrder(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, `<html><body><div class="content"><main><div class="page-content"><p>x</p></div></main></div></body></html>`)
	report := enhance(t, e, doc, PageSource{Source: "order.html"})

	if report.Footer.MountPoint != ".page-content" {
		t.Errorf("expected first locator to win, got %q", report.Footer.MountPoint)
	}
	pc := doc.First(dom.MustCompile(".page-content"))
	if !footer.IsMarked(pc.LastChild) {
		t.Error("expected footer under .page-content")
	}
}

func TestEnhance_NoMountPoint(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, `<html><body><div class="content"><p>no landmark</p></div></body></html>`)

	report, tr, err := e.Enhance(context.Background(), doc, PageSource{Source: "nomount.html"})
	if err != nil {
		t.Fatalf("expected no error without a mount point, got %v", err)
	}
	_ = tr.Settle()

	if report.Footer.Status != model.FooterNoMountPoint {
		t.Errorf("expected no_mount status, got %s", report.Footer.Status)
	}
	if footers(doc) != 0 {
		t.Error("expected no footer appended")
	}

	found := false
	for _, d := range report.Diagnostics {
		if d.Severity == model.SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning diagnostic")
	}
}

func TestEnhance_Idempotent(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)
	page := PageSource{Source: "ch01.html", PageURL: "https://example.com/ch01.html", Title: "Ownership"}

	enhance(t, e, doc, page)
	second := enhance(t, e, doc, page)

	if n := footers(doc); n != 1 {
		t.Errorf("expected exactly one footer after two runs, got %d", n)
	}
	if second.Footer.Status != model.FooterPresent {
		t.Errorf("expected second run to see the existing footer, got %s", second.Footer.Status)
	}

	for _, q := range doc.Find(dom.MustCompile("blockquote")) {
		if len(dom.Classes(q)) > 1 {
			t.Errorf("expected no duplicated classes, got %v", dom.Classes(q))
		}
	}
	for _, c := range second.Callouts {
		if c.Kind.IsCallout() && !c.Existing {
			t.Errorf("expected callout %d to be recognised as already classified", c.Index)
		}
	}
}

func TestEnhance_ShareLinksWithoutPageURL(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)
	report := enhance(t, e, doc, PageSource{Source: "ch01.html", PageURL: "ch01.html"})

	if report.Footer.Status != model.FooterInjected {
		t.Fatalf("expected footer injected, got %s", report.Footer.Status)
	}
	if len(report.Footer.ShareLinks) != 0 {
		t.Error("expected attribution-only footer without an absolute URL")
	}

	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "Share this page:") {
		t.Error("expected no share row")
	}
	if !strings.Contains(out, "Rust Tutorial Team") {
		t.Error("expected attribution line")
	}
}

func TestEnhance_ShareLinksDisabled(t *testing.T) {
	e := newTestEnhancer(t, func(cfg *model.Config) { cfg.Footer.ShareLinks = false })
	doc := parse(t, bookPage)
	report := enhance(t, e, doc, PageSource{Source: "ch01.html", PageURL: "https://example.com/"})

	if len(report.Footer.ShareLinks) != 0 {
		t.Error("expected no share links when disabled")
	}
	if len(report.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %+v", report.Diagnostics)
	}
}

func TestEnhance_FeaturesDisabled(t *testing.T) {
	e := newTestEnhancer(t, func(cfg *model.Config) {
		cfg.Enhance.Callouts = false
		cfg.Enhance.FadeIn = false
		cfg.Footer.Enabled = false
	})
	doc := parse(t, bookPage)
	before, _ := doc.HTML()

	report := enhance(t, e, doc, PageSource{Source: "ch01.html"})
	after, _ := doc.HTML()

	if before != after {
		t.Error("expected page untouched with everything disabled")
	}
	if report.Footer.Status != model.FooterDisabled {
		t.Errorf("expected disabled footer status, got %s", report.Footer.Status)
	}
}

func TestOptionsFromConfig_InvalidSelector(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Footer.MountPoints = []string{".page-content", "main[["}

	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Error("expected error for invalid mount point selector")
	}
}

func TestEnhance_ContextCancelled(t *testing.T) {
	e := newTestEnhancer(t, nil)
	doc := parse(t, bookPage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := e.Enhance(ctx, doc, PageSource{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
