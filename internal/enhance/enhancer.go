package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/mdpolish/internal/callout"
	"github.com/ppiankov/mdpolish/internal/dom"
	"github.com/ppiankov/mdpolish/internal/fade"
	"github.com/ppiankov/mdpolish/internal/footer"
	"github.com/ppiankov/mdpolish/internal/model"
	"golang.org/x/net/html"
)

// Options holds the compiled enhancer settings
type Options struct {
	Blockquotes dom.Selector
	Content     dom.Selector
	MountPoints []dom.Selector

	Callouts bool
	FadeIn   bool
	Footer   bool

	FooterOptions footer.Options
}

// OptionsFromConfig compiles the configured selectors. An invalid selector
// is a configuration error, reported before any page is touched.
func OptionsFromConfig(cfg *model.Config) (Options, error) {
	opts := Options{
		Callouts:      cfg.Enhance.Callouts,
		FadeIn:        cfg.Enhance.FadeIn,
		Footer:        cfg.Footer.Enabled,
		FooterOptions: footer.OptionsFromConfig(cfg.Footer),
	}

	var err error
	if opts.Callouts {
		if opts.Blockquotes, err = dom.Compile(cfg.Enhance.BlockquoteSelector); err != nil {
			return Options{}, fmt.Errorf("enhance.blockquote_selector: %w", err)
		}
	}
	if opts.FadeIn {
		if opts.Content, err = dom.Compile(cfg.Enhance.ContentSelector); err != nil {
			return Options{}, fmt.Errorf("enhance.content_selector: %w", err)
		}
	}
	if opts.Footer {
		if opts.MountPoints, err = dom.CompileAll(cfg.Footer.MountPoints); err != nil {
			return Options{}, fmt.Errorf("footer.mount_points: %w", err)
		}
	}

	return opts, nil
}

// PageSource identifies the page being enhanced
type PageSource struct {
	Source  string // File path or URL, for reports and logs
	PageURL string // Absolute URL used in share links; may be empty
	Title   string
}

// Enhancer runs the callout, fade and footer passes over a page
type Enhancer struct {
	opts       Options
	classifier *callout.Classifier
	builder    *footer.Builder
	logger     *slog.Logger
}

// New creates an enhancer. A nil logger uses slog.Default.
func New(opts Options, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{
		opts:       opts,
		classifier: callout.NewClassifier(),
		builder:    footer.NewBuilder(opts.FooterOptions),
		logger:     logger,
	}
}

// NewFromConfig compiles cfg and creates an enhancer
func NewFromConfig(cfg *model.Config, logger *slog.Logger) (*Enhancer, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(opts, logger), nil
}

// Enhance classifies callouts, starts the fade-in and injects the footer.
// Missing page regions are recorded in the report, never returned as errors.
// The returned transition is nil when no content region was faded.
func (e *Enhancer) Enhance(ctx context.Context, doc *dom.Document, page PageSource) (*model.PageReport, *fade.Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &model.PageReport{
		Source:  page.Source,
		PageURL: page.PageURL,
		Title:   page.Title,
		Counts:  make(map[model.CalloutKind]int),
	}
	log := e.logger.With("page", page.Source)

	if e.opts.Callouts {
		if err := e.classify(doc, report); err != nil {
			return nil, nil, fmt.Errorf("classify callouts: %w", err)
		}
	}

	var transition *fade.Transition
	if e.opts.FadeIn {
		var err error
		transition, err = e.fadeIn(doc, report)
		if err != nil {
			return nil, nil, fmt.Errorf("fade in: %w", err)
		}
	}

	if err := e.injectFooter(doc, page, report, log); err != nil {
		// Leave the page usable if the footer fails after the fade started.
		if settleErr := transition.Settle(); settleErr != nil {
			log.Debug("settle after footer failure", "error", settleErr)
		}
		return nil, nil, fmt.Errorf("inject footer: %w", err)
	}

	log.Debug("page enhanced",
		"callouts", report.Classified(),
		"fade", report.FadeApplied,
		"footer", report.Footer.Status)

	return report, transition, nil
}

func (e *Enhancer) classify(doc *dom.Document, report *model.PageReport) error {
	nodes := doc.Find(e.opts.Blockquotes)
	if len(nodes) == 0 {
		return nil
	}

	var snaps []callout.Snapshot
	_ = doc.View(func(_ *goquery.Document) error {
		snaps = callout.Snapshots(nodes)
		return nil
	})

	muts, results := e.classifier.Plan(snaps)
	if err := doc.Apply(muts...); err != nil {
		return err
	}

	report.Callouts = results
	for _, r := range results {
		if r.Kind.IsCallout() {
			report.Counts[r.Kind]++
		}
	}
	return nil
}

func (e *Enhancer) fadeIn(doc *dom.Document, report *model.PageReport) (*fade.Transition, error) {
	node := doc.First(e.opts.Content)
	if node == nil {
		report.AddDiagnostic(model.SeverityInfo,
			fmt.Sprintf("no content region matched %q; fade-in skipped", e.opts.Content))
		return nil, nil
	}

	t, err := fade.Start(doc, node)
	if err != nil {
		return nil, err
	}
	report.FadeApplied = true
	return t, nil
}

func (e *Enhancer) injectFooter(doc *dom.Document, page PageSource, report *model.PageReport, log *slog.Logger) error {
	if !e.opts.Footer {
		report.Footer.Status = model.FooterDisabled
		return nil
	}

	var existing *html.Node
	_ = doc.View(func(_ *goquery.Document) error {
		existing = footer.FindMarked(doc.Root())
		return nil
	})
	if existing != nil {
		report.Footer.Status = model.FooterPresent
		return nil
	}

	mount, locator := e.findMountPoint(doc)
	if mount == nil {
		report.Footer.Status = model.FooterNoMountPoint
		msg := "footer mount point not found"
		report.AddDiagnostic(model.SeverityWarning, msg)
		log.Warn(msg, "tried", e.opts.MountPoints)
		return nil
	}

	var links []model.ShareLink
	if e.builder.ShareEnabled() {
		if isAbsoluteURL(page.PageURL) {
			links = footer.ShareLinks(page.PageURL, page.Title)
		} else {
			report.AddDiagnostic(model.SeverityInfo,
				"share links omitted: no absolute page URL (set site.base_url)")
		}
	}

	fragment := e.builder.Build(links)
	if err := doc.Apply(dom.AppendMutation{Parent: mount, Children: []*html.Node{fragment}}); err != nil {
		return err
	}

	report.Footer = model.FooterResult{
		Status:     model.FooterInjected,
		MountPoint: locator.String(),
		ShareLinks: links,
	}
	return nil
}

// findMountPoint tries each locator in order and returns the first match
func (e *Enhancer) findMountPoint(doc *dom.Document) (*html.Node, dom.Selector) {
	for _, sel := range e.opts.MountPoints {
		if n := doc.First(sel); n != nil {
			return n, sel
		}
	}
	return nil, dom.Selector{}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
