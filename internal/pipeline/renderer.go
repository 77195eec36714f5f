package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/mdpolish/internal/model"
)

// NewRunSummary starts a run summary with a fresh run ID
func NewRunSummary() *model.RunSummary {
	return &model.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// FinishRun sorts the page outcomes, stamps the finish time and tallies totals
func FinishRun(s *model.RunSummary) {
	sort.Slice(s.Pages, func(i, j int) bool {
		return s.Pages[i].Source < s.Pages[j].Source
	})
	s.FinishedAt = time.Now().UTC()
	s.Tally()
}

// WriteReport writes the run summary as indented JSON
func WriteReport(path string, s *model.RunSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// PrintSummary writes a human-readable run summary
func PrintSummary(w io.Writer, s *model.RunSummary) {
	t := s.Totals

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Enhancement Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run:       %s\n", s.RunID)
	fmt.Fprintf(w, "  Pages:     %d (%d failed, %d cached)\n", t.Pages, t.Failed, t.Cached)
	fmt.Fprintf(w, "  Footers:   %d added\n", t.FootersAdded)
	fmt.Fprintf(w, "  Fade-in:   %d pages\n", t.FadesApplied)
	for _, kind := range model.CalloutKinds {
		if n := t.CalloutsByKind[kind]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", kind.String()+":", n)
		}
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  Duration:  %v\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "\n")

	for _, p := range s.Pages {
		if p.Error != "" {
			fmt.Fprintf(w, "  ✗ %s: %s\n", p.Source, p.Error)
			continue
		}
		if p.Report == nil {
			continue
		}
		for _, d := range p.Report.Diagnostics {
			if d.Severity == model.SeverityWarning {
				fmt.Fprintf(w, "  ⚠ %s: %s\n", p.Source, d.Message)
			}
		}
	}
}
