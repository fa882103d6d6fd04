package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/redline/internal/ir"
	"github.com/roach88/redline/internal/resolve"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Find       string
	Occurrence int
}

// ShowOutput is the JSON payload of the show command.
type ShowOutput struct {
	Loc   string `json:"loc"`
	Kind  string `json:"kind"`
	Range string `json:"range"`
	Text  string `json:"text"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <doc.yaml> <loc>",
		Short: "Resolve a location key and print its text",
		Long: `Resolve a location key against a document and print the text it covers.

With --find, a paragraph location narrows to the given occurrence
(0-based, case-sensitive) of the search string.

Examples:
  redline show contract.yaml 1.p1
  redline show contract.yaml 1.p1 --find rabbit --occurrence 1
  redline show contract.yaml 4.t0.r1`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Find, "find", "", "substring to locate within the paragraph")
	cmd.Flags().IntVar(&opts.Occurrence, "occurrence", 0, "0-based occurrence of --find")

	return cmd
}

func runShow(opts *ShowOptions, docPath, loc string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	doc, err := loadDocument(docPath)
	if err != nil {
		return loadFailure(f, err)
	}

	var within *ir.WithinPara
	if opts.Find != "" {
		within = &ir.WithinPara{Find: opts.Find, Occurrence: opts.Occurrence}
	}

	target, err := resolve.Resolve(cmd.Context(), doc, loc, within)
	if err != nil {
		return showFailure(f, err)
	}
	text, err := resolve.Text(cmd.Context(), doc, target)
	if err != nil {
		return showFailure(f, err)
	}
	opts.logger().Debug("location resolved", "loc", loc, "range", target.Range.Kind)

	out := ShowOutput{
		Loc:   target.Key.String(),
		Kind:  target.Key.Kind.String(),
		Range: target.Range.Kind.String(),
		Text:  text,
	}
	return f.Emit(text+"\n", out, "", "")
}

// showFailure reports a resolution error. The code is the resolver's
// error code; the exit code is ExitFailure.
func showFailure(f *OutputFormatter, err error) error {
	code := string(ir.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	if f.Format == "json" {
		_ = f.Error(code, err.Error(), nil)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("resolve failed: %v", err))
}
