package cli

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/redline/internal/engine"
	"github.com/roach88/redline/internal/ir"
)

// ErrCodePartial marks a batch in which at least one selected action failed.
const ErrCodePartial = "E_PARTIAL"

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Fingerprint string
	Database    string
	Out         string
	Only        string
	MetricsFile string

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// ApplyOutput is the JSON payload of the apply command.
type ApplyOutput struct {
	RunID     string         `json:"run_id"`
	BatchHash string         `json:"batch_hash"`
	Status    ir.BatchStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	Order     []int          `json:"order"`
	Applied   []int          `json:"applied"`
	Rejected  []int          `json:"rejected"`
	Failed    []int          `json:"failed"`
	Outcomes  []ir.Outcome   `json:"outcomes"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return newApplyCommand(&ApplyOptions{RootOptions: rootOpts})
}

func newApplyCommand(opts *ApplyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <doc.yaml> <batch>",
		Short: "Apply a batch of actions to a document",
		Long: `Apply a batch file (.json, .yaml or .cue) to a document.

Actions run in scheduled order, one at a time. A failing action is
reported and the rest still run. When the batch carries a fingerprint
(in the file or via --fingerprint) and the document no longer matches it,
nothing is applied.

Exit codes:
  0 - Every selected action applied
  1 - Stale document, or at least one action failed
  2 - Command error (unreadable document, invalid batch file, quota exceeded)

Examples:
  redline apply contract.yaml edits.yaml --out contract.yaml
  redline apply contract.yaml edits.json --only 0,2 --db redline.db
  redline apply contract.yaml edits.cue --fingerprint 9f2c... --metrics-file batch.prom`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "fingerprint the batch was assembled against (overrides the batch file)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite batch log (overrides config)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the edited document to this path")
	cmd.Flags().StringVar(&opts.Only, "only", "", "comma separated action indices to apply; the rest are rejected")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write batch metrics in Prometheus text format")

	return cmd
}

func runApply(opts *ApplyOptions, docPath, batchPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg := opts.settings()
	log := opts.logger()

	doc, err := loadDocument(docPath)
	if err != nil {
		return loadFailure(f, err)
	}
	batch, err := loadBatch(batchPath)
	if err != nil {
		return loadFailure(f, err)
	}
	selected, err := parseIndices(opts.Only)
	if err != nil {
		return loadFailure(f, err)
	}

	fingerprint := batch.Fingerprint
	if cmd.Flags().Changed("fingerprint") {
		fingerprint = opts.Fingerprint
	}
	dbPath := cfg.Database
	if cmd.Flags().Changed("db") {
		dbPath = opts.Database
	}

	st, err := openStore(dbPath)
	if err != nil {
		return loadFailure(f, err)
	}
	if st != nil {
		defer st.Close()
	}

	engineOpts := []engine.Option{
		engine.WithMaxActions(cfg.MaxActions),
		engine.WithHighlightColor(cfg.HighlightColor),
		engine.WithTracking(cfg.TrackChanges),
		engine.WithLogger(log),
	}
	if st != nil {
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}
	var reg *prometheus.Registry
	if opts.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(engine.NewMetrics(reg)))
	}

	f.VerboseLog("applying %d action(s) from %s", len(batch.Actions), batchPath)
	eng := engine.New(doc, engineOpts...)
	res, batchErr := eng.Execute(cmd.Context(), engine.Batch{
		Actions:     batch.Actions,
		Fingerprint: fingerprint,
		Selected:    selected,
	})

	if reg != nil {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			log.Warn("failed to write metrics", "path", opts.MetricsFile, "error", err)
		}
	}

	if batchErr == nil && opts.Out != "" {
		if err := doc.Save(opts.Out); err != nil {
			return loadFailure(f, &LoadError{Code: ErrCodeWriteFailed, Message: "failed to write document", Err: err})
		}
		f.VerboseLog("wrote %s", opts.Out)
	}

	out := applyOutput(res, batchErr)
	code, msg, exit := applyExit(res, batchErr)
	if err := f.Emit(formatApply(out), out, code, msg); err != nil {
		return err
	}
	if exit != ExitSuccess {
		return NewExitError(exit, msg)
	}
	return nil
}

func applyOutput(res engine.Result, batchErr error) ApplyOutput {
	out := ApplyOutput{
		RunID:     res.RunID,
		BatchHash: res.BatchHash,
		Status:    res.Status,
		Order:     orEmpty(res.Order),
		Applied:   orEmpty(res.Applied),
		Rejected:  orEmpty(res.Rejected),
		Failed:    orEmpty(res.Failed),
		Outcomes:  res.Outcomes,
	}
	if out.Outcomes == nil {
		out.Outcomes = []ir.Outcome{}
	}
	if batchErr != nil {
		out.Error = batchErr.Error()
	}
	return out
}

// applyExit maps a batch result to the envelope error code, message and
// exit code. A stale document or unreachable host is a failure of the run;
// any other batch-level error is bad input.
func applyExit(res engine.Result, batchErr error) (code, msg string, exit int) {
	switch {
	case batchErr != nil:
		code = string(ir.CodeOf(batchErr))
		if code == "" {
			code = ErrCodeGeneric
		}
		exit = ExitCommandError
		if ir.IsStale(batchErr) || ir.IsHostUnavailable(batchErr) {
			exit = ExitFailure
		}
		return code, batchErr.Error(), exit
	case len(res.Failed) > 0:
		return ErrCodePartial, fmt.Sprintf("%d action(s) failed", len(res.Failed)), ExitFailure
	default:
		return "", "", ExitSuccess
	}
}

func formatApply(out ApplyOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run: %s\n", out.RunID)
	fmt.Fprintf(&b, "status: %s\n", out.Status)
	if out.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", out.Error)
	}
	for _, o := range out.Outcomes {
		fmt.Fprintf(&b, "  [%d] %s %s: %s", o.Index, o.Kind, o.Loc, o.Status)
		if o.Error != "" {
			fmt.Fprintf(&b, ": %s", o.Error)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "applied %d, failed %d, rejected %d\n", len(out.Applied), len(out.Failed), len(out.Rejected))
	return b.String()
}

func orEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
