package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/mdpolish/internal/model"
	"github.com/ppiankov/mdpolish/internal/pipeline"
	"github.com/ppiankov/mdpolish/internal/progress"
	"github.com/ppiankov/mdpolish/internal/site"
	"github.com/ppiankov/mdpolish/internal/worker"
)

var (
	outPath     string
	reportPath  string
	baseURL     string
	pageTitle   string
	concurrency int
	runTimeout  time.Duration
	userAgent   string
	noCache     bool
	noShare     bool
	noFooter    bool
	noFade      bool
	noCallouts  bool
	noProgress  bool
	insecureTLS bool
)

// enhanceCmd represents the enhance command
var enhanceCmd = &cobra.Command{
	Use:   "enhance <book-dir|page.html>",
	Short: "Enhance the pages of a built book",
	Long: `Enhance classifies callout blockquotes, adds the fade-in styles and
appends the footer to every HTML page of a built book (mdbook build output).

Pages are rewritten in place unless --out is given. Share links need the
public URL of the book (--base-url or site.base_url); without it the footer
carries attribution only.

Example:
  mdpolish enhance book
  mdpolish enhance book --out dist --base-url https://example.github.io/rust-tutorial/
  mdpolish enhance book/ch01-00-intro.html --title "Introduction"
  mdpolish enhance book --report run.json --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	enhanceCmd.Flags().StringVarP(&outPath, "out", "o", "", "output directory (or file for a single page); default rewrites in place")
	enhanceCmd.Flags().StringVar(&reportPath, "report", "", "write a JSON run report to this path")
	enhanceCmd.Flags().StringVar(&pageTitle, "title", "", "page title for share links (single page only; default <title>)")
	enhanceCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default concurrency.workers)")
	enhanceCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "total timeout for the run")
	enhanceCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress display")
	addEnhanceFlags(enhanceCmd.Flags())
}

// addEnhanceFlags registers the flags shared by every command that enhances pages
func addEnhanceFlags(fs *pflag.FlagSet) {
	fs.StringVar(&baseURL, "base-url", "", "public URL the book is served from (enables share links)")
	fs.BoolVar(&noCache, "no-cache", false, "disable the output cache")
	fs.BoolVar(&noShare, "no-share", false, "omit share links from the footer")
	fs.BoolVar(&noFooter, "no-footer", false, "do not inject the footer")
	fs.BoolVar(&noFade, "no-fade", false, "do not add the fade-in")
	fs.BoolVar(&noCallouts, "no-callouts", false, "do not classify callout blockquotes")
}

// addHTTPFlags registers the flags shared by every command that fetches pages
func addHTTPFlags(fs *pflag.FlagSet) {
	fs.StringVar(&userAgent, "ua", "", "HTTP User-Agent (default http.user_agent)")
	fs.BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
}

// commandConfig loads the merged configuration and applies the flags the
// user set on cmd.
func commandConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("base-url") {
		cfg.Site.BaseURL = baseURL
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("no-share") {
		cfg.Footer.ShareLinks = !noShare
	}
	if changed("no-footer") {
		cfg.Footer.Enabled = !noFooter
	}
	if changed("no-fade") {
		cfg.Enhance.FadeIn = !noFade
	}
	if changed("no-callouts") {
		cfg.Enhance.Callouts = !noCallouts
	}
	if changed("concurrency") && concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if changed("ua") && userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if changed("no-progress") {
		cfg.Output.Progress = !noProgress
	}
	if changed("report") {
		cfg.Output.Report = reportPath
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM or after timeout
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

func runEnhance(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(runTimeout)
	defer cancel()

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	var tasks []worker.FileTask
	if info.IsDir() {
		tasks, err = bookTasks(target, outPath, cfg)
	} else {
		var task worker.FileTask
		task, err = singleTask(target, outPath, cfg)
		tasks = []worker.FileTask{task}
	}
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintf(os.Stderr, "No pages matched in %s\n", target)
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Enhancing: %s\n", target)
		fmt.Fprintf(os.Stderr, "Pages:     %d\n", len(tasks))
		fmt.Fprintf(os.Stderr, "Workers:   %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Base URL:  %s\n", valueOr(cfg.Site.BaseURL, "(none, share links omitted)"))
		fmt.Fprintln(os.Stderr)
	}

	summary := pipeline.NewRunSummary()
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, 0, 0)

	var reporter progress.Reporter = progress.Nop{}
	if cfg.Output.Progress && len(tasks) > 1 {
		reporter = progress.NewReporter(os.Stderr, "Enhancing pages")
	}
	processor.OnResult(func(r *worker.PageResult) {
		reporter.Step(r.Source, r.Error)
	})

	reporter.Start(len(tasks))
	results := processor.ProcessFiles(ctx, tasks)
	reporter.Finish()

	return finishRun(summary, results, cfg.Output.Report)
}

// bookTasks lists the pages of a book directory. Output paths mirror the
// book layout under outDir, or rewrite in place when outDir is empty.
func bookTasks(root, outDir string, cfg *model.Config) ([]worker.FileTask, error) {
	pages, err := site.Walk(site.WalkConfig{
		Root:    root,
		Include: cfg.Site.Include,
		Exclude: cfg.Site.Exclude,
	})
	if err != nil {
		return nil, err
	}

	tasks := make([]worker.FileTask, 0, len(pages))
	for _, page := range pages {
		pageURL, err := site.PageURL(cfg.Site.BaseURL, page.RelPath)
		if err != nil {
			return nil, fmt.Errorf("site.base_url: %w", err)
		}

		out := page.Path
		if outDir != "" {
			out = filepath.Join(outDir, filepath.FromSlash(page.RelPath))
		}

		tasks = append(tasks, worker.FileTask{
			Path:   page.Path,
			Out:    out,
			Source: pipeline.PageSource{Source: page.Path, PageURL: pageURL},
		})
	}
	return tasks, nil
}

// singleTask builds the task for one page file. Its URL is derived from the
// file name, which is only right when the page sits at the book root.
func singleTask(path, out string, cfg *model.Config) (worker.FileTask, error) {
	pageURL, err := site.PageURL(cfg.Site.BaseURL, filepath.Base(path))
	if err != nil {
		return worker.FileTask{}, fmt.Errorf("site.base_url: %w", err)
	}

	if out == "" {
		out = path
	} else if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, filepath.Base(path))
	}

	return worker.FileTask{
		Path:   path,
		Out:    out,
		Source: pipeline.PageSource{Source: path, PageURL: pageURL, Title: pageTitle},
	}, nil
}

// finishRun prints the summary, writes the optional report and fails the
// command when any page failed.
func finishRun(summary *model.RunSummary, results []*worker.PageResult, report string) error {
	for _, r := range results {
		summary.Pages = append(summary.Pages, r.Outcome())
	}
	pipeline.FinishRun(summary)
	pipeline.PrintSummary(os.Stderr, summary)

	if report != "" {
		if err := pipeline.WriteReport(report, summary); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Report written: %s\n", report)
	}

	if summary.Totals.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", summary.Totals.Failed, summary.Totals.Pages)
	}
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
