package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mdpolish/internal/callout"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Print the callout kind of blockquote text",
	Long: `Classify prints the callout kind each argument would receive, or each
line of stdin when no arguments are given. Useful for checking how a
blockquote in the book source will be styled.

Example:
  mdpolish classify "💡 Use cargo check for fast feedback"
  grep '^>' src/*.md | mdpolish classify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := callout.NewClassifier()
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			for _, text := range args {
				printClassification(out, c, text)
			}
			return nil
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			printClassification(out, c, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return nil
	},
}

func printClassification(w io.Writer, c *callout.Classifier, text string) {
	kind, rule := c.Match(text)
	if rule == "" {
		rule = "-"
	}
	_, _ = fmt.Fprintf(w, "%-9s %-18s %s\n", kind, rule, text)
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
