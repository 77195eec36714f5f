package model

import "time"

// PageReport describes what the enhancer did to one page
type PageReport struct {
	Source   string `json:"source"`             // File path or URL the page came from
	PageURL  string `json:"page_url,omitempty"` // URL used for share links
	Title    string `json:"title,omitempty"`    // document.title equivalent
	Language string `json:"language,omitempty"` // <html lang>

	Callouts []Callout          `json:"callouts,omitempty"`
	Counts   map[CalloutKind]int `json:"counts,omitempty"` // Classified blockquotes per kind

	FadeApplied bool         `json:"fade_applied"`
	Footer      FooterResult `json:"footer"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Cached      bool         `json:"cached,omitempty"` // Output served from cache
}

// Diagnostic is a non-fatal note raised while enhancing a page
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity"`
	Message  string             `json:"message"`
}

// DiagnosticSeverity indicates the importance of a diagnostic
type DiagnosticSeverity string

const (
	SeverityInfo    DiagnosticSeverity = "info"
	SeverityWarning DiagnosticSeverity = "warning"
)

// AddDiagnostic appends a diagnostic to the report
func (r *PageReport) AddDiagnostic(sev DiagnosticSeverity, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: sev, Message: msg})
}

// Classified returns the number of blockquotes that received a callout class
func (r *PageReport) Classified() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// PageOutcome pairs a page report with the error that stopped it, if any
type PageOutcome struct {
	Source string      `json:"source"`
	Output string      `json:"output,omitempty"` // Where the enhanced HTML was written
	Report *PageReport `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// RunSummary is the JSON document written for a whole run
type RunSummary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Pages      []PageOutcome `json:"pages"`
	Totals     RunTotals     `json:"totals"`
}

// RunTotals aggregates page outcomes
type RunTotals struct {
	Pages          int                 `json:"pages"`
	Failed         int                 `json:"failed"`
	Cached         int                 `json:"cached"`
	FootersAdded   int                 `json:"footers_added"`
	FadesApplied   int                 `json:"fades_applied"`
	CalloutsByKind map[CalloutKind]int `json:"callouts_by_kind"`
}

// Tally recomputes the totals from the page outcomes
func (s *RunSummary) Tally() {
	t := RunTotals{CalloutsByKind: make(map[CalloutKind]int)}
	for _, p := range s.Pages {
		t.Pages++
		if p.Error != "" {
			t.Failed++
			continue
		}
		if p.Report == nil {
			continue
		}
		if p.Report.Cached {
			t.Cached++
		}
		if p.Report.Footer.Status == FooterInjected {
			t.FootersAdded++
		}
		if p.Report.FadeApplied {
			t.FadesApplied++
		}
		for k, n := range p.Report.Counts {
			t.CalloutsByKind[k] += n
		}
	}
	s.Totals = t
}
