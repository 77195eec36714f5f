package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/pipeline"
)

var (
	fetchOut     string
	fetchTimeout time.Duration
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a rendered page and enhance it",
	Long: `Fetch downloads one rendered book page, enhances it and writes the
result to --out (stdout by default). The final URL after redirects is used
for the share links. robots.txt is honoured unless http.respect_robots is off.

Example:
  mdpolish fetch https://example.github.io/rust-tutorial/ch01-00-intro.html
  mdpolish fetch https://example.github.io/rust-tutorial/ --out index.html --report page.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "-", "output file, - for stdout")
	fetchCmd.Flags().StringVar(&reportPath, "report", "", "write the page report as JSON to this path")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "overall timeout including retries")
	addEnhanceFlags(fetchCmd.Flags())
	addHTTPFlags(fetchCmd.Flags())
}

func runFetch(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(fetchTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Fetching: %s\n", url)
		fmt.Fprintf(os.Stderr, "Timeout:  %v\n", fetchTimeout)
		fmt.Fprintf(os.Stderr, "Cache:    %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	res, err := p.EnhanceURL(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if fetchOut == "" || fetchOut == "-" {
		if _, err := os.Stdout.Write(res.HTML); err != nil {
			return fmt.Errorf("write page: %w", err)
		}
	} else if err := pipeline.WriteHTML(fetchOut, res.HTML); err != nil {
		return err
	}

	r := res.Report
	fmt.Fprintf(os.Stderr, "✓ %s\n", r.PageURL)
	fmt.Fprintf(os.Stderr, "  Callouts: %d  Fade: %v  Footer: %s\n", r.Classified(), r.FadeApplied, r.Footer.Status)
	for _, d := range r.Diagnostics {
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", d.Severity, d.Message)
	}

	if reportPath != "" {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(reportPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return nil
}
