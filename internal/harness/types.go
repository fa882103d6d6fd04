package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/redline/internal/engine"
	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/memdoc"
)

// FormattedRun is one styled run of a paragraph after the batch.
type FormattedRun struct {
	Key   string
	Text  string
	Style host.Style
	Color string
}

// Result is the outcome of one scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string

	// Pass is true if every expect clause matched.
	Pass bool

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string

	// Batch is what the engine returned.
	Batch engine.Result

	// BatchError is the batch-level error message, empty if none.
	BatchError string
	ErrorCode  ir.ErrorCode

	// Record is the batch as read back from the batch log.
	Record ir.BatchRecord

	// Document is the rendered snapshot after the batch.
	Document []string

	Formatting []FormattedRun
	Comments   []memdoc.Comment
	Revisions  []memdoc.Revision

	// Tracking is the document's tracking mode after the batch.
	Tracking host.TrackingMode
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Errors:   []string{},
		Document: []string{},
	}
}

// AddError adds an expectation mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Report renders the result as deterministic text: no run ids, hashes or
// fingerprints, only what the batch did to the document.
func (r *Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(&b, "status: %s\n", r.Record.Status)
	if r.BatchError != "" {
		fmt.Fprintf(&b, "error: %s\n", r.BatchError)
	}
	fmt.Fprintf(&b, "order: %v\n", r.Batch.Order)

	b.WriteString("outcomes:\n")
	for _, o := range r.Record.Outcomes {
		fmt.Fprintf(&b, "  [%d] %s %s: %s", o.Index, o.Kind, o.Loc, o.Status)
		if o.Error != "" {
			fmt.Fprintf(&b, ": %s", o.Error)
		}
		b.WriteByte('\n')
	}

	b.WriteString("document:\n")
	for _, line := range r.Document {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	if len(r.Formatting) > 0 {
		b.WriteString("formatting:\n")
		for _, f := range r.Formatting {
			fmt.Fprintf(&b, "  %s %q: %s", f.Key, f.Text, f.Style)
			if f.Color != "" {
				fmt.Fprintf(&b, " (%s)", f.Color)
			}
			b.WriteByte('\n')
		}
	}

	if len(r.Comments) > 0 {
		b.WriteString("comments:\n")
		for _, c := range r.Comments {
			fmt.Fprintf(&b, "  %q: %s\n", c.Anchor, c.Text)
		}
	}

	if len(r.Revisions) > 0 {
		b.WriteString("revisions:\n")
		for _, rev := range r.Revisions {
			fmt.Fprintf(&b, "  %s %q\n", rev.Kind, rev.Text)
		}
	}

	fmt.Fprintf(&b, "tracking: %s\n", r.Tracking)
	return b.String()
}
