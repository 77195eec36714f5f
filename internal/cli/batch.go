package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/pipeline"
	"github.com/ppiankov/mdpolish/internal/progress"
	"github.com/ppiankov/mdpolish/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fetch and enhance many pages in parallel",
	Long: `Batch fetches and enhances rendered pages concurrently:
- Read URLs from input file (one per line, # comments allowed)
- Fetch with a per-host rate limit (rate_limiting.*)
- Write each enhanced page to the output directory

Example:
  mdpolish batch urls.txt
  mdpolish batch urls.txt --concurrency 8 --output-dir ./enhanced
  mdpolish batch urls.txt --report run.json --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mdpolish-pages", "output directory for enhanced pages")
	batchCmd.Flags().StringVar(&reportPath, "report", "", "write a JSON run report to this path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress display")
	addEnhanceFlags(batchCmd.Flags())
	addHTTPFlags(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}

	ctx, cancel := signalContext(batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  mdpolish Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d URLs)\n", file, len(urls))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.1f req/s per host\n", cfg.RateLimiting.RequestsPerSecond)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers,
		cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var reporter progress.Reporter = progress.Nop{}
	if cfg.Output.Progress {
		reporter = progress.NewReporter(os.Stderr, "Fetching pages")
	}
	processor.OnResult(func(r *worker.PageResult) {
		reporter.Step(r.Source, r.Error)
	})

	summary := pipeline.NewRunSummary()
	reporter.Start(len(urls))
	results := processor.ProcessURLs(ctx, urls)
	reporter.Finish()

	for _, r := range results {
		if r.Error != nil {
			continue
		}
		out := filepath.Join(outputDir, pageFilename(r.Source))
		if err := pipeline.WriteHTML(out, r.HTML); err != nil {
			r.Error = err
			continue
		}
		r.Output = out
	}

	return finishRun(summary, results, cfg.Output.Report)
}

// pageFilename maps a page URL to a flat file name:
// https://host/book/ch01.html -> host_book_ch01.html
func pageFilename(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		p := strings.TrimSuffix(u.Path, "/")
		if p == "" || strings.HasSuffix(u.Path, "/") {
			p += "/index.html"
		}
		name = u.Host + p
	}

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		case ' ':
			return '-'
		}
		return r
	}, name)

	if path.Ext(name) != ".html" && path.Ext(name) != ".htm" {
		name += ".html"
	}

	// Leave room for the extension
	if len(name) > 100 {
		name = name[:95] + ".html"
	}
	return name
}
