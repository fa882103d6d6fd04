package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/index"
	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/schedule"
)

// DefaultMaxActions is the default batch-size quota.
const DefaultMaxActions = 200

// DefaultHighlightColor is the colour the highlight action applies.
const DefaultHighlightColor = "Yellow"

// Recorder persists the outcome of executed batches.
// Implemented by store.Store.
type Recorder interface {
	RecordBatch(ctx context.Context, rec ir.BatchRecord) (int64, error)
}

// Batch is one caller-approved set of actions.
type Batch struct {
	// Actions in the order the caller produced them. Result indices refer
	// to positions in this slice.
	Actions []ir.Action

	// Fingerprint is the snapshot fingerprint the batch was assembled
	// against. Empty skips the staleness check.
	Fingerprint string

	// Selected lists the indices the reviewer approved. Nil applies every
	// action; the others are reported as rejected.
	Selected []int

	// Edits replaces the new_text of individual actions, keyed by index.
	Edits map[int]string
}

// Result is the per-action outcome of one Execute call.
type Result struct {
	RunID     string
	BatchHash string
	Status    ir.BatchStatus

	// Order is the execution order of the selected actions, as indices.
	Order []int

	Applied  []int
	Rejected []int
	Failed   []int

	// Errors maps each failed index to its message.
	Errors map[int]string

	// Outcomes has one entry per action, in index order.
	Outcomes []ir.Outcome
}

// OK reports whether every selected action applied.
func (r Result) OK() bool {
	return r.Status == ir.BatchApplied
}

// Engine applies action batches to one host document.
//
// Thread-safety model:
//   - Execute serializes on the engine: no two batches run concurrently
//     against the same document
//   - the host is only touched from inside Execute
type Engine struct {
	host     host.Host
	runIDs   RunIDGenerator
	recorder Recorder
	metrics  *Metrics
	log      *slog.Logger

	maxActions     int
	highlightColor string
	tracking       bool

	running chan struct{} // one-slot semaphore held for the whole batch
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxActions sets the batch-size quota. Zero or less disables it.
//
// Default: 200 (DefaultMaxActions)
func WithMaxActions(n int) Option {
	return func(e *Engine) {
		e.maxActions = n
	}
}

// WithHighlightColor sets the colour used by the highlight action.
func WithHighlightColor(color string) Option {
	return func(e *Engine) {
		if color != "" {
			e.highlightColor = color
		}
	}
}

// WithTracking turns the change-tracking scope on or off. On by default.
func WithTracking(on bool) Option {
	return func(e *Engine) {
		e.tracking = on
	}
}

// WithRecorder records every executed batch.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMetrics reports batch and action counts.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRunIDs sets the run id generator. Defaults to UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine for doc.
func New(doc host.Host, opts ...Option) *Engine {
	e := &Engine{
		host:           doc,
		runIDs:         UUIDv7Generator{},
		log:            slog.Default(),
		maxActions:     DefaultMaxActions,
		highlightColor: DefaultHighlightColor,
		tracking:       true,
		running:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the current snapshot of the document, empty for an
// empty document. Its fingerprint is what a caller attaches to a batch.
func (e *Engine) Snapshot(ctx context.Context) (ir.Snapshot, error) {
	snap, err := index.Current(ctx, e.host)
	if err != nil {
		return ir.Snapshot{}, hostError(err)
	}
	return snap, nil
}

// Execute applies a batch.
//
// The returned error is non-nil only for batch-level failures: an invalid
// batch, an over-quota batch, a stale fingerprint, or an unreachable host.
// Per-action failures are reported in Result and never returned. The
// Result is filled in either way.
func (e *Engine) Execute(ctx context.Context, b Batch) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	select {
	case e.running <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-e.running }()

	start := time.Now()
	res, err := e.execute(ctx, b)
	if e.metrics != nil {
		e.metrics.observe(res, time.Since(start))
	}
	e.record(ctx, res, b.Fingerprint, err)
	return res, err
}

func (e *Engine) execute(ctx context.Context, b Batch) (Result, error) {
	res := Result{RunID: e.runIDs.Generate(), Errors: map[int]string{}}
	log := e.log.With("run", res.RunID)

	actions, err := applyEdits(b.Actions, b.Edits)
	if err != nil {
		res.Status = ir.BatchFailed
		return res, err
	}
	res.Outcomes = make([]ir.Outcome, len(actions))
	for i, a := range actions {
		res.Outcomes[i] = ir.Outcome{Index: i, ExecOrder: -1, Kind: a.Kind(), Loc: a.Loc, Status: ir.OutcomeSkipped}
	}

	res.BatchHash, err = ir.BatchHash(actions)
	if err != nil {
		res.Status = ir.BatchFailed
		return res, err
	}

	selected, err := selection(len(actions), b.Selected)
	if err != nil {
		res.Status = ir.BatchFailed
		return res, err
	}
	count := 0
	for _, ok := range selected {
		if ok {
			count++
		}
	}
	if err := checkQuota(count, e.maxActions); err != nil {
		log.Error("batch rejected", "actions", count, "limit", e.maxActions)
		res.Status = ir.BatchFailed
		return res, err
	}

	if b.Fingerprint != "" {
		snap, err := index.Current(ctx, e.host)
		if err != nil {
			res.Status = ir.BatchFailed
			return res, hostError(err)
		}
		if index.CheckStale(b.Fingerprint, snap) {
			log.Error("stale batch", "expected", b.Fingerprint, "actual", snap.Fingerprint())
			res.Status = ir.BatchStale
			return res, ir.NewStaleDocument(b.Fingerprint, snap.Fingerprint())
		}
	}

	for i := range actions {
		if !selected[i] {
			res.Outcomes[i].Status = ir.OutcomeRejected
			res.Rejected = append(res.Rejected, i)
		}
	}

	var steps []schedule.Step
	for _, s := range schedule.Plan(actions) {
		if selected[s.Index] {
			steps = append(steps, s)
			res.Order = append(res.Order, s.Index)
		}
	}

	log.Info("batch started", "actions", len(steps), "rejected", len(res.Rejected))

	// Past this point the batch runs to completion.
	ctx = context.WithoutCancel(ctx)
	fatal := e.withTracking(ctx, log, func() error {
		return e.applyAll(ctx, log, steps, &res)
	})

	switch {
	case fatal != nil:
		res.Status = ir.BatchFailed
	case len(res.Failed) > 0:
		res.Status = ir.BatchPartial
	default:
		res.Status = ir.BatchApplied
	}
	slices.Sort(res.Applied)
	slices.Sort(res.Failed)

	log.Info("batch finished",
		"status", res.Status,
		"applied", len(res.Applied),
		"failed", len(res.Failed),
		"rejected", len(res.Rejected),
	)
	return res, fatal
}

// applyAll runs the steps in order. It returns a non-nil error only when
// the host became unreachable; remaining steps stay skipped.
func (e *Engine) applyAll(ctx context.Context, log *slog.Logger, steps []schedule.Step, res *Result) error {
	for n, s := range steps {
		out := &res.Outcomes[s.Index]
		out.ExecOrder = n

		err := e.apply(ctx, log, s.Action)
		if err == nil {
			out.Status = ir.OutcomeApplied
			res.Applied = append(res.Applied, s.Index)
			continue
		}

		out.Status = ir.OutcomeFailed
		out.ErrorCode = ir.CodeOf(err)
		out.Error = err.Error()
		res.Failed = append(res.Failed, s.Index)
		res.Errors[s.Index] = err.Error()

		if errors.Is(err, host.ErrHostUnavailable) {
			fatal := ir.NewHostUnavailable(err)
			out.ErrorCode = fatal.Code
			log.Error("host unavailable, stopping batch",
				"index", s.Index,
				"remaining", len(steps)-n-1,
				"error", err,
			)
			return fatal
		}

		// Log and continue: one bad action never blocks the others.
		log.Warn("action failed",
			"index", s.Index,
			"action", s.Action.Kind(),
			"loc", s.Action.Loc,
			"error", err,
		)
	}
	return nil
}

// withTracking enables change tracking around fn and restores the prior
// mode on every exit path. A restore failure is logged; it does not replace
// the error fn returned.
func (e *Engine) withTracking(ctx context.Context, log *slog.Logger, fn func() error) error {
	if !e.tracking {
		return fn()
	}

	prev, err := e.host.TrackingMode(ctx)
	if err != nil {
		return hostError(err)
	}
	if err := e.host.SetTrackingMode(ctx, host.TrackingAll); err != nil {
		return hostError(err)
	}
	log.Info("tracking enabled", "previous", prev)

	defer func() {
		if err := e.host.SetTrackingMode(ctx, prev); err != nil {
			log.Error("failed to restore tracking mode", "mode", prev, "error", err)
			return
		}
		log.Info("tracking restored", "mode", prev)
	}()
	return fn()
}

func (e *Engine) record(ctx context.Context, res Result, fingerprint string, batchErr error) {
	if e.recorder == nil || res.RunID == "" {
		return
	}

	rec := ir.BatchRecord{
		ID:          res.RunID,
		BatchHash:   res.BatchHash,
		Fingerprint: fingerprint,
		Status:      res.Status,
		Outcomes:    res.Outcomes,
	}
	if batchErr != nil {
		rec.Error = batchErr.Error()
	}

	// The batch already ran; a cancelled caller must not lose its log entry.
	seq, err := e.recorder.RecordBatch(context.WithoutCancel(ctx), rec)
	if err != nil {
		e.log.Error("failed to record batch", "run", res.RunID, "error", err)
		return
	}
	e.log.Debug("batch recorded", "run", res.RunID, "seq", seq)
}

// applyEdits returns a copy of actions with reviewer edits applied.
func applyEdits(actions []ir.Action, edits map[int]string) ([]ir.Action, error) {
	out := slices.Clone(actions)
	for i, text := range edits {
		if i < 0 || i >= len(out) {
			return nil, ir.NewInvalidAction(fmt.Sprintf("edit for action %d out of range (batch has %d actions)", i, len(out)), nil)
		}
		if _, ok := out[i].NewText(); !ok {
			return nil, ir.NewInvalidAction(fmt.Sprintf("action %d (%s) has no text to edit", i, out[i].Kind()), nil)
		}
		out[i] = out[i].WithNewText(text)
	}
	return out, nil
}

// selection returns which indices run. A nil list selects everything.
func selection(n int, selected []int) ([]bool, error) {
	out := make([]bool, n)
	if selected == nil {
		for i := range out {
			out[i] = true
		}
		return out, nil
	}
	for _, i := range selected {
		if i < 0 || i >= n {
			return nil, ir.NewInvalidAction(fmt.Sprintf("selected action %d out of range (batch has %d actions)", i, n), nil)
		}
		out[i] = true
	}
	return out, nil
}
