package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/resolve"
	"github.com/roach88/redline/internal/schedule"
)

// PlanStep is one scheduled action.
type PlanStep struct {
	Position  int          `json:"position"`
	Index     int          `json:"index"`
	Kind      ir.Kind      `json:"kind"`
	Loc       string       `json:"loc"`
	Class     string       `json:"class"`
	ErrorCode ir.ErrorCode `json:"error_code,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// PlanOutput is the JSON payload of the plan command.
type PlanOutput struct {
	Steps []PlanStep `json:"steps"`

	// Unresolved counts steps whose location does not resolve against
	// the document as it is now.
	Unresolved int `json:"unresolved"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <doc.yaml> <batch>",
		Short: "Print the execution order of a batch",
		Long: `Schedule a batch without applying it.

Each step shows its position in execution order, the index of the action
in the batch file, and its priority class. Every location is also resolved
against the current document; a location that does not resolve is marked,
though it may still fail or succeed differently once earlier steps run.

Example:
  redline plan contract.yaml edits.yaml`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runPlan(opts *RootOptions, docPath, batchPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	doc, err := loadDocument(docPath)
	if err != nil {
		return loadFailure(f, err)
	}
	batch, err := loadBatch(batchPath)
	if err != nil {
		return loadFailure(f, err)
	}

	out := PlanOutput{Steps: []PlanStep{}}
	var text strings.Builder
	for pos, s := range schedule.Plan(batch.Actions) {
		step := PlanStep{
			Position: pos,
			Index:    s.Index,
			Kind:     s.Action.Kind(),
			Loc:      s.Action.Loc,
			Class:    s.Class.String(),
		}
		if _, err := resolve.Resolve(cmd.Context(), doc, s.Action.Loc, s.Action.Within()); err != nil {
			step.ErrorCode = ir.CodeOf(err)
			step.Error = err.Error()
			out.Unresolved++
		}
		out.Steps = append(out.Steps, step)

		fmt.Fprintf(&text, "%d. [%d] %s %s (%s)\n", step.Position, step.Index, step.Kind, step.Loc, step.Class)
		if step.Error != "" {
			fmt.Fprintf(&text, "   ! %s\n", step.Error)
		}
	}
	if len(out.Steps) == 0 {
		text.WriteString("Empty batch.\n")
	}
	opts.logger().Debug("batch planned", "actions", len(out.Steps), "unresolved", out.Unresolved)

	return f.Emit(text.String(), out, "", "")
}
