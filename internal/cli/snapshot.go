package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/redline/internal/index"
)

// SnapshotEntry is one paragraph line of snapshot output.
type SnapshotEntry struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// SnapshotOutput is the JSON payload of the snapshot command.
type SnapshotOutput struct {
	Entries     []SnapshotEntry `json:"entries"`
	Fingerprint string          `json:"fingerprint"`
	Empty       bool            `json:"empty"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <doc.yaml>",
		Short: "Print the location keys of a document",
		Long: `Index a document and print one "<key>: <text>" line per paragraph,
followed by the fingerprint a batch should carry.

A document whose paragraphs are all blank is empty: it has no lines and
the fingerprint of an empty snapshot.

Example:
  redline snapshot contract.yaml
  redline snapshot contract.yaml --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSnapshot(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	doc, err := loadDocument(path)
	if err != nil {
		return loadFailure(f, err)
	}

	snap, err := index.Current(cmd.Context(), doc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to index document", err)
	}
	opts.logger().Debug("document indexed", "path", path, "paragraphs", snap.Len())

	out := SnapshotOutput{
		Entries:     make([]SnapshotEntry, 0, snap.Len()),
		Fingerprint: snap.Fingerprint(),
		Empty:       snap.Len() == 0,
	}
	for _, e := range snap.Entries() {
		out.Entries = append(out.Entries, SnapshotEntry{Key: e.Key.String(), Text: e.Text})
	}

	var text strings.Builder
	if out.Empty {
		text.WriteString("(empty document)\n")
	} else {
		text.WriteString(snap.Render())
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "fingerprint: %s\n", out.Fingerprint)

	return f.Emit(text.String(), out, "", "")
}
