package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/fences"
)

var fencesDryRun bool

// fencesCmd represents the fences command
var fencesCmd = &cobra.Command{
	Use:   "fences <src-dir>",
	Short: "Annotate unlabeled code fences in book sources",
	Long: `Fences scans the Markdown sources of a book and labels code blocks so
mdbook test and the playground treat them correctly:
- unlabeled blocks become text
- rust blocks holding program output, trees or diagrams become text
- rust blocks that cannot compile on their own become rust,ignore
- blocks that already carry attributes (rust,editable) are left alone

Example:
  mdpolish fences src --dry-run
  mdpolish fences src`,
	Args: cobra.ExactArgs(1),
	RunE: runFences,
}

func init() {
	rootCmd.AddCommand(fencesCmd)
	fencesCmd.Flags().BoolVar(&fencesDryRun, "dry-run", false, "report changes without writing files")
}

func runFences(cmd *cobra.Command, args []string) error {
	root := args[0]

	ctx, cancel := signalContext(0)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Scanning %s...\n", root)
	if fencesDryRun {
		fmt.Fprintf(os.Stderr, "DRY RUN MODE - no files will be modified\n")
	}
	fmt.Fprintln(os.Stderr)

	results, err := fences.Run(ctx, root, fencesDryRun, slog.Default())
	if err != nil {
		return err
	}

	prefix := ""
	if fencesDryRun {
		prefix = "[DRY RUN] "
	}

	modified, fixed, skipped := 0, 0, 0
	for _, r := range results {
		skipped += r.Skipped
		if len(r.Changes) == 0 {
			continue
		}
		modified++
		fixed += len(r.Changes)
		fmt.Printf("%sFixed %d blocks in %s\n", prefix, len(r.Changes), r.Path)
		if verbose {
			for _, c := range r.Changes {
				fmt.Printf("  %s:%d  %q → %q\n", r.Path, c.Line, c.From, c.To)
			}
		}
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Summary")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Files scanned:   %d\n", len(results))
	fmt.Printf("  Files modified:  %d\n", modified)
	fmt.Printf("  Blocks fixed:    %d\n", fixed)
	fmt.Printf("  Blocks skipped:  %d\n", skipped)
	if fencesDryRun && fixed > 0 {
		fmt.Println()
		fmt.Println("Run without --dry-run to apply changes")
	}
	return nil
}
