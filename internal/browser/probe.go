package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ppiankov/mdpolish/internal/fade"
	"github.com/ppiankov/mdpolish/internal/footer"
	"github.com/ppiankov/mdpolish/internal/model"
)

// settleMargin is added to the fade delay and duration before sampling
const settleMargin = 250 * time.Millisecond

// Options controls a probe
type Options struct {
	ContentSelector string
	UserAgent       string
	Timeout         time.Duration
	ExecPath        string // Chrome binary; empty lets chromedp find one
}

// Result is what a reader's browser shows after the page settles
type Result struct {
	URL          string                    `json:"url"`
	Title        string                    `json:"title"`
	ContentFound bool                      `json:"content_found"`
	Opacity      string                    `json:"opacity"`
	Callouts     map[model.CalloutKind]int `json:"callouts"`
	Footers      int                       `json:"footers"`
}

// Problems lists what a reader would notice is wrong
func (r *Result) Problems() []string {
	var problems []string
	if r.ContentFound {
		if v, err := strconv.ParseFloat(r.Opacity, 64); err != nil || v < 1 {
			problems = append(problems, fmt.Sprintf("content region not opaque (opacity %q)", r.Opacity))
		}
	}
	switch {
	case r.Footers == 0:
		problems = append(problems, "no generated footer")
	case r.Footers > 1:
		problems = append(problems, fmt.Sprintf("%d generated footers", r.Footers))
	}
	return problems
}

// probeScript builds the expression evaluated in the page
func probeScript(contentSelector string) (string, error) {
	sel, err := json.Marshal(contentSelector)
	if err != nil {
		return "", err
	}
	kinds, err := json.Marshal(model.CalloutKinds)
	if err != nil {
		return "", err
	}
	marker, err := json.Marshal(fmt.Sprintf("footer[%s=%q]", footer.MarkerAttr, footer.MarkerValue))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`(() => {
  const content = document.querySelector(%s);
  const callouts = {};
  for (const kind of %s) {
    callouts[kind] = document.querySelectorAll("blockquote." + kind).length;
  }
  return {
    url: location.href,
    title: document.title,
    content_found: content !== null,
    opacity: content ? getComputedStyle(content).opacity : "",
    callouts: callouts,
    footers: document.querySelectorAll(%s).length,
  };
})()`, sel, kinds, marker), nil
}

// Probe loads url in headless Chrome, waits for the fade-in to finish and
// samples the page.
func Probe(ctx context.Context, url string, opts Options) (*Result, error) {
	script, err := probeScript(opts.ContentSelector)
	if err != nil {
		return nil, fmt.Errorf("build probe script: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, opts.Timeout)
		defer cancel()
	}

	var result Result
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(fade.Delay+fade.Duration+settleMargin),
		chromedp.Evaluate(script, &result),
	)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	return &result, nil
}
