package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/redline/internal/engine"
	"github.com/roach88/redline/internal/index"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/memdoc"
	"github.com/roach88/redline/internal/store"
	"github.com/roach88/redline/internal/testutil"
)

// Harness runs one scenario against a fresh document and batch log.
type Harness struct {
	store  *store.Store
	doc    *memdoc.Document
	engine *engine.Engine
	runIDs *testutil.SequentialRunIDs
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Build the document and an in-memory batch log
//  2. Take the snapshot the batch is assembled against
//  3. Apply drift edits, if any
//  4. Execute the batch with the snapshot's fingerprint
//  5. Read the batch back from the log and check expectations
//
// The returned error is for harness failures only (bad fixture, drift that
// did not apply, log read errors). A batch that misbehaves is reported in
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	doc, err := memdoc.FromSpec(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	h := &Harness{
		store:  st,
		doc:    doc,
		runIDs: testutil.NewSequentialRunIDs(),
		logger: testutil.QuietLogger(),
	}
	opts := []engine.Option{
		engine.WithRunIDs(h.runIDs),
		engine.WithRecorder(st),
		engine.WithLogger(h.logger),
	}
	if scenario.MaxActions > 0 {
		opts = append(opts, engine.WithMaxActions(scenario.MaxActions))
	}
	h.engine = engine.New(doc, opts...)

	snap, err := h.engine.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to take snapshot: %w", err)
	}

	if err := h.drift(ctx, scenario.Drift); err != nil {
		return nil, err
	}
	before := len(doc.Revisions())

	res, batchErr := h.engine.Execute(ctx, engine.Batch{
		Actions:     scenario.Actions,
		Fingerprint: snap.Fingerprint(),
		Selected:    scenario.Selected,
		Edits:       scenario.Edits,
	})

	result := NewResult(scenario.Name)
	result.Batch = res
	if batchErr != nil {
		result.BatchError = batchErr.Error()
		result.ErrorCode = ir.CodeOf(batchErr)
	}

	result.Record, err = st.ReadBatch(ctx, res.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s back: %w", res.RunID, err)
	}

	if err := h.capture(ctx, result); err != nil {
		return nil, err
	}
	result.Revisions = doc.Revisions()[before:]

	for _, msg := range CheckExpect(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"status", result.Record.Status,
		"pass", result.Pass,
	)
	return result, nil
}

// drift applies edits through a separate engine that neither records nor
// tracks, so only the batch under test shows up in the log.
func (h *Harness) drift(ctx context.Context, actions []ir.Action) error {
	if len(actions) == 0 {
		return nil
	}
	eng := engine.New(h.doc,
		engine.WithTracking(false),
		engine.WithRunIDs(engine.NewFixedGenerator("drift")),
		engine.WithLogger(h.logger),
	)
	res, err := eng.Execute(ctx, engine.Batch{Actions: actions})
	if err != nil {
		return fmt.Errorf("drift: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("drift: %d of %d edits failed: %v", len(res.Failed), len(actions), res.Errors)
	}
	return nil
}

// capture records the final document state on result.
func (h *Harness) capture(ctx context.Context, result *Result) error {
	snap, err := index.Current(ctx, h.doc)
	if err != nil {
		return fmt.Errorf("failed to index final document: %w", err)
	}
	if snap.Len() > 0 {
		result.Document = strings.Split(snap.Render(), "\n")
	}

	// Formatting is read from the full index: an all-blank document still
	// has addressable paragraphs.
	full, err := index.Build(ctx, h.doc)
	if err != nil {
		return fmt.Errorf("failed to index final document: %w", err)
	}
	paras, err := h.doc.Paragraphs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list paragraphs: %w", err)
	}
	for i, e := range full.Entries() {
		runs, err := h.doc.Runs(paras[i].ID)
		if err != nil {
			return fmt.Errorf("failed to read runs of %s: %w", e.Key, err)
		}
		for _, r := range runs {
			if r.Style == 0 {
				continue
			}
			result.Formatting = append(result.Formatting, FormattedRun{
				Key:   e.Key.String(),
				Text:  r.Text,
				Style: r.Style,
				Color: r.Color,
			})
		}
	}

	result.Comments = h.doc.Comments()
	result.Tracking, err = h.doc.TrackingMode(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tracking mode: %w", err)
	}
	return nil
}
