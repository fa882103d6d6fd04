package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/redline/internal/ir"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Hash     string
	RunID    string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded batches",
		Long: `List batches recorded in the SQLite batch log, oldest first.

Every executed batch is recorded, including stale and failed ones, with its
run id, content hash and the outcome of each action.

Examples:
  redline history --db redline.db
  redline history --db redline.db --limit 5 --format json
  redline history --db redline.db --run 0192f1c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite batch log (overrides config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N batches (0 = all)")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "show only runs of the batch with this content hash")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run with its outcomes")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	dbPath := opts.settings().Database
	if cmd.Flags().Changed("db") {
		dbPath = opts.Database
	}
	if dbPath == "" {
		return loadFailure(f, &LoadError{Code: ErrCodeFlag, Message: "no batch log: set --db or database in the config file"})
	}
	if !strings.HasPrefix(dbPath, ":memory:") {
		if _, err := os.Stat(dbPath); err != nil {
			return loadFailure(f, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch log not found: %s", dbPath)})
		}
	}

	st, err := openStore(dbPath)
	if err != nil {
		return loadFailure(f, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var batches []ir.BatchRecord
	switch {
	case opts.RunID != "":
		rec, err := st.ReadBatch(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return loadFailure(f, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run not found: %s", opts.RunID)})
		}
		if err != nil {
			return loadFailure(f, &LoadError{Code: ErrCodeStore, Message: "failed to read batch log", Err: err})
		}
		batches = []ir.BatchRecord{rec}
	case opts.Hash != "":
		batches, err = st.ReadBatchesByHash(ctx, opts.Hash)
	default:
		batches, err = st.ReadBatches(ctx, opts.Limit)
	}
	if err != nil {
		return loadFailure(f, &LoadError{Code: ErrCodeStore, Message: "failed to read batch log", Err: err})
	}

	return f.Emit(formatHistory(batches, opts.RunID != ""), batches, "", "")
}

func formatHistory(batches []ir.BatchRecord, detail bool) string {
	if len(batches) == 0 {
		return "No batches recorded.\n"
	}

	var b strings.Builder
	for _, rec := range batches {
		counts := map[ir.OutcomeStatus]int{}
		for _, o := range rec.Outcomes {
			counts[o.Status]++
		}
		fmt.Fprintf(&b, "#%d %s %s actions=%d applied=%d failed=%d rejected=%d skipped=%d\n",
			rec.Seq, rec.ID, rec.Status, len(rec.Outcomes),
			counts[ir.OutcomeApplied], counts[ir.OutcomeFailed],
			counts[ir.OutcomeRejected], counts[ir.OutcomeSkipped])
		if rec.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", rec.Error)
		}
		if !detail {
			continue
		}
		fmt.Fprintf(&b, "  hash: %s\n", rec.BatchHash)
		if rec.Fingerprint != "" {
			fmt.Fprintf(&b, "  fingerprint: %s\n", rec.Fingerprint)
		}
		for _, o := range rec.Outcomes {
			fmt.Fprintf(&b, "  [%d] %s %s: %s", o.Index, o.Kind, o.Loc, o.Status)
			if o.Error != "" {
				fmt.Fprintf(&b, ": %s", o.Error)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
