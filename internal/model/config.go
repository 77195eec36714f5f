package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all mdpolish settings
type Config struct {
	Enhance      EnhanceConfig      `yaml:"enhance" mapstructure:"enhance"`
	Footer       FooterConfig       `yaml:"footer" mapstructure:"footer"`
	Site         SiteConfig         `yaml:"site" mapstructure:"site"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Serve        ServeConfig        `yaml:"serve" mapstructure:"serve"`
}

// EnhanceConfig controls where the page enhancer looks
type EnhanceConfig struct {
	BlockquoteSelector string `yaml:"blockquote_selector" mapstructure:"blockquote_selector"` // Blockquotes eligible for callout classification
	ContentSelector    string `yaml:"content_selector" mapstructure:"content_selector"`       // Main content region that fades in
	Callouts           bool   `yaml:"callouts" mapstructure:"callouts"`
	FadeIn             bool   `yaml:"fade_in" mapstructure:"fade_in"`
}

// FooterConfig controls the generated footer
type FooterConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	MountPoints []string `yaml:"mount_points" mapstructure:"mount_points"` // Tried in order, first match wins
	ShareLinks  bool     `yaml:"share_links" mapstructure:"share_links"`
	Team        string   `yaml:"team" mapstructure:"team"`
	RepoURL     string   `yaml:"repo_url" mapstructure:"repo_url"`
	IssuesURL   string   `yaml:"issues_url" mapstructure:"issues_url"`
}

// SiteConfig describes the book being processed
type SiteConfig struct {
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"` // Public URL the book is served from
	Include []string `yaml:"include" mapstructure:"include"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
}

// HTTPConfig holds fetcher settings
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig holds worker settings
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig holds per-host limits for remote pages
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	Progress bool   `yaml:"progress" mapstructure:"progress"`
	Report   string `yaml:"report,omitempty" mapstructure:"report"` // Optional JSON run report path
}

// ServeConfig holds serve mode settings
type ServeConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"` // CORS origins; empty disables CORS
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	cacheDir := ".mdpolish-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".mdpolish", "cache")
	}

	return &Config{
		Enhance: EnhanceConfig{
			BlockquoteSelector: ".markdown-section blockquote, main blockquote",
			ContentSelector:    ".content",
			Callouts:           true,
			FadeIn:             true,
		},
		Footer: FooterConfig{
			Enabled:     true,
			MountPoints: []string{".page-content", "main"},
			ShareLinks:  true,
			Team:        "Rust Tutorial Team",
			RepoURL:     "https://github.com/premix-kernel/rust-tutorial",
			IssuesURL:   "https://github.com/premix-kernel/rust-tutorial/issues",
		},
		Site: SiteConfig{
			Include: []string{"**/*.html"},
			Exclude: []string{"**/print.html", "**/toc.html", "**/404.html"},
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "mdpolish/0.1 (+https://github.com/ppiankov/mdpolish)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Output: OutputConfig{
			Progress: true,
		},
		Serve: ServeConfig{
			Addr:           "127.0.0.1:3000",
			RequestTimeout: 30 * time.Second,
		},
	}
}
