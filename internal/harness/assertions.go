package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/redline/internal/ir"
)

// AssertionError is one expect clause that did not match.
// It includes the full report to help debug the failure.
type AssertionError struct {
	Field    string // expect field that failed
	Expected string
	Actual   string
	Report   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != "" {
		fmt.Fprintf(&buf, "\nReport:\n%s", e.Report)
	}

	return buf.String()
}

// CheckExpect compares a result with the scenario's expect clause and
// returns one message per mismatch.
func CheckExpect(r *Result, want Expect) []string {
	var errs []error
	report := r.Report()

	fail := func(field string, expected, actual any) {
		errs = append(errs, &AssertionError{
			Field:    field,
			Expected: fmt.Sprintf("%v", expected),
			Actual:   fmt.Sprintf("%v", actual),
			Report:   report,
		})
	}

	if r.Record.Status != want.Status {
		fail("status", want.Status, r.Record.Status)
	}
	if r.Batch.Status != r.Record.Status {
		fail("status (log)", r.Batch.Status, r.Record.Status)
	}
	if r.ErrorCode != want.ErrorCode {
		fail("error_code", codeOrNone(want.ErrorCode), codeOrNone(r.ErrorCode))
	}

	checkInts := func(field string, expected, actual []int) {
		if expected == nil {
			return
		}
		if !slices.Equal(expected, normalize(actual)) {
			fail(field, expected, normalize(actual))
		}
	}
	checkInts("order", want.Order, r.Batch.Order)
	checkInts("applied", want.Applied, r.Batch.Applied)
	checkInts("failed", want.Failed, r.Batch.Failed)
	checkInts("rejected", want.Rejected, r.Batch.Rejected)

	if want.Errors != nil {
		for _, i := range slices.Sorted(maps.Keys(want.Errors)) {
			if got := r.Batch.Errors[i]; got != want.Errors[i] {
				fail(fmt.Sprintf("errors[%d]", i), fmt.Sprintf("%q", want.Errors[i]), fmt.Sprintf("%q", got))
			}
		}
		if len(r.Batch.Errors) != len(want.Errors) {
			fail("errors", fmt.Sprintf("%d errors", len(want.Errors)), fmt.Sprintf("%d errors", len(r.Batch.Errors)))
		}
	}

	if want.Document != nil && !slices.Equal(want.Document, r.Document) {
		fail("document", quoteLines(want.Document), quoteLines(r.Document))
	}

	if want.Revisions != nil && *want.Revisions != len(r.Revisions) {
		fail("revisions", *want.Revisions, len(r.Revisions))
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func normalize(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func codeOrNone(c ir.ErrorCode) string {
	if c == "" {
		return "none"
	}
	return string(c)
}

func quoteLines(lines []string) string {
	quoted := make([]string, len(lines))
	for i, l := range lines {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
