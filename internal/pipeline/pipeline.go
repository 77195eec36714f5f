package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ppiankov/mdpolish/internal/cache"
	"github.com/ppiankov/mdpolish/internal/dom"
	"github.com/ppiankov/mdpolish/internal/enhance"
	"github.com/ppiankov/mdpolish/internal/extract"
	"github.com/ppiankov/mdpolish/internal/model"
	"github.com/ppiankov/mdpolish/internal/util"
	"gopkg.in/yaml.v3"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// PageSource identifies the page being enhanced
type PageSource = enhance.PageSource

// Pipeline parses, enhances and renders pages
type Pipeline struct {
	enhancer    *enhance.Enhancer
	fetcher     *Fetcher
	robots      *util.RobotsChecker
	cache       cache.Cache
	fingerprint []byte
	config      *model.Config
	logger      *slog.Logger
}

// NewPipeline creates a pipeline. Invalid selectors in cfg are reported here.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	enhancer, err := enhance.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("configure enhancer: %w", err)
	}

	fingerprint, err := configFingerprint(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	p := &Pipeline{
		enhancer:    enhancer,
		fetcher:     fetcher,
		cache:       cache.FromConfig(cfg.Cache),
		fingerprint: fingerprint,
		config:      cfg,
		logger:      logger,
	}
	if cfg.HTTP.RespectRobots {
		p.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, fetcher.Client())
	}
	return p, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() *model.Config {
	return p.config
}

// Cache returns the output cache, nil when disabled
func (p *Pipeline) Cache() cache.Cache {
	return p.cache
}

// Result is an enhanced page
type Result struct {
	HTML   []byte
	Report *model.PageReport
}

type cachedResult struct {
	HTML   []byte            `json:"html"`
	Report *model.PageReport `json:"report"`
}

// EnhanceHTML runs the enhancer over one page and renders the settled result.
// Missing title or page URL are filled from the page's <title> and canonical link.
func (p *Pipeline) EnhanceHTML(ctx context.Context, input []byte, src PageSource) (*Result, error) {
	key := cache.Key(input, []byte(src.PageURL), []byte(src.Title), p.fingerprint)
	if res, ok := p.cached(key, src); ok {
		return res, nil
	}

	doc, err := dom.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}

	info := extract.Page(doc.Root(), src.PageURL)
	if src.Title == "" {
		src.Title = info.Title
	}
	if src.PageURL == "" {
		src.PageURL = info.Canonical
	}

	report, transition, err := p.enhancer.Enhance(ctx, doc, src)
	if err != nil {
		return nil, err
	}
	report.Language = info.Language

	if err := transition.Wait(ctx); err != nil {
		_ = transition.Settle()
		return nil, fmt.Errorf("wait for fade-in: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	res := &Result{HTML: buf.Bytes(), Report: report}
	p.store(key, res)
	return res, nil
}

func (p *Pipeline) cached(key string, src PageSource) (*Result, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}

	var entry cachedResult
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Report == nil {
		_ = p.cache.Delete(key)
		return nil, false
	}

	entry.Report.Source = src.Source
	entry.Report.Cached = true
	return &Result{HTML: entry.HTML, Report: entry.Report}, true
}

func (p *Pipeline) store(key string, res *Result) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(cachedResult{HTML: res.HTML, Report: res.Report})
	if err != nil {
		p.logger.Debug("encode cache entry", "error", err)
		return
	}
	if err := p.cache.Set(key, raw, 0); err != nil {
		p.logger.Debug("write cache entry", "error", err)
	}
}

// EnhanceFile enhances the page at path and writes it to out, which may be
// the same path.
func (p *Pipeline) EnhanceFile(ctx context.Context, path, out string, src PageSource) (*Result, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if src.Source == "" {
		src.Source = path
	}

	res, err := p.EnhanceHTML(ctx, input, src)
	if err != nil {
		return nil, err
	}

	if err := WriteHTML(out, res.HTML); err != nil {
		return nil, err
	}
	return res, nil
}

// EnhanceURL fetches a rendered page and enhances it, using the final URL
// after redirects as the page URL.
func (p *Pipeline) EnhanceURL(ctx context.Context, rawURL string) (*Result, error) {
	if p.robots != nil {
		allowed, _, err := p.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}

	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	p.logger.Debug("fetched page", "url", rawURL, "final_url", fetched.FinalURL, "bytes", len(fetched.HTML))

	return p.EnhanceHTML(ctx, []byte(fetched.HTML), PageSource{
		Source:  rawURL,
		PageURL: fetched.FinalURL,
	})
}

// WriteHTML writes an enhanced page, creating parent directories
func WriteHTML(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// configFingerprint serializes the settings that change enhanced output
func configFingerprint(cfg *model.Config) ([]byte, error) {
	fp, err := yaml.Marshal(struct {
		Enhance model.EnhanceConfig `yaml:"enhance"`
		Footer  model.FooterConfig  `yaml:"footer"`
	}{cfg.Enhance, cfg.Footer})
	if err != nil {
		return nil, fmt.Errorf("fingerprint config: %w", err)
	}
	return fp, nil
}
