package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/browser"
	"github.com/ppiankov/mdpolish/internal/model"
)

var (
	chromePath    string
	verifyTimeout time.Duration
	verifyJSON    bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <url>",
	Short: "Check an enhanced page in headless Chrome",
	Long: `Verify loads a page in headless Chrome, waits for the fade-in to finish
and checks what a reader would see: the content region fully opaque,
classified callouts and exactly one generated footer.

Requires Chrome or Chromium on the PATH (or --chrome).

Example:
  mdpolish verify http://127.0.0.1:3000/ch01-00-intro.html
  mdpolish verify https://example.github.io/rust-tutorial/ --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&chromePath, "chrome", "", "path to the Chrome binary")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Second, "page load timeout")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the probe result as JSON")
	addHTTPFlags(verifyCmd.Flags())
}

func runVerify(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(verifyTimeout + 10*time.Second)
	defer cancel()

	result, err := browser.Probe(ctx, url, browser.Options{
		ContentSelector: cfg.Enhance.ContentSelector,
		UserAgent:       cfg.HTTP.UserAgent,
		Timeout:         verifyTimeout,
		ExecPath:        chromePath,
	})
	if err != nil {
		return err
	}

	problems := result.Problems()

	if verifyJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("Page:     %s\n", result.URL)
		fmt.Printf("Title:    %s\n", result.Title)
		if result.ContentFound {
			fmt.Printf("Opacity:  %s\n", result.Opacity)
		} else {
			fmt.Printf("Opacity:  (no element matches %q)\n", cfg.Enhance.ContentSelector)
		}
		fmt.Printf("Callouts:")
		for _, k := range model.CalloutKinds {
			fmt.Printf(" %s=%d", k, result.Callouts[k])
		}
		fmt.Println()
		fmt.Printf("Footers:  %d\n", result.Footers)
		fmt.Println()
		for _, p := range problems {
			fmt.Printf("✗ %s\n", p)
		}
		if len(problems) == 0 {
			fmt.Println("✓ Page looks enhanced")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problems found", len(problems))
	}
	return nil
}
