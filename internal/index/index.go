// Package index builds location snapshots of a live document and guards
// batches against staleness.
//
// Build walks the paragraphs once in document order and names each with a
// LocationKey. Every paragraph consumes one docPos; top-level paragraphs are
// keyed by their flat index, cell paragraphs by table/row/column and their
// index within the cell. The walk is a pure read.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/ir"
)

type cellPos struct {
	table, row, col int
}

// Build produces the snapshot of the document as it is now.
func Build(ctx context.Context, doc host.Reader) (ir.Snapshot, error) {
	paras, err := doc.Paragraphs(ctx)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("index: %w", err)
	}

	entries := make([]ir.Entry, 0, len(paras))

	var (
		tableIdx  = -1
		inTable   bool
		current   host.TableID
		cellParas map[cellPos]int
	)
	for n, p := range paras {
		docPos := n
		if !p.InTable {
			inTable = false
			entries = append(entries, ir.Entry{Key: ir.ParagraphKey(docPos, n), Text: p.Text})
			continue
		}

		// A new table starts on entry from body text, and also when one
		// table directly follows another.
		if !inTable || p.Table != current {
			tableIdx++
			current = p.Table
			cellParas = make(map[cellPos]int)
		}
		inTable = true

		pos := cellPos{tableIdx, p.Row, p.Col}
		local := cellParas[pos]
		cellParas[pos] = local + 1

		entries = append(entries, ir.Entry{
			Key:  ir.CellParagraphKey(docPos, tableIdx, p.Row, p.Col, local),
			Text: p.Text,
		})
	}
	return ir.NewSnapshot(entries), nil
}

// IsEmpty reports whether the document has no visible text: no paragraphs,
// or only whitespace.
func IsEmpty(ctx context.Context, doc host.Reader) (bool, error) {
	paras, err := doc.Paragraphs(ctx)
	if err != nil {
		return false, fmt.Errorf("index: %w", err)
	}
	for _, p := range paras {
		if strings.TrimSpace(p.Text) != "" {
			return false, nil
		}
	}
	return true, nil
}

// Current returns the snapshot a caller should hand out: an empty snapshot
// for an empty document, a full Build otherwise.
func Current(ctx context.Context, doc host.Reader) (ir.Snapshot, error) {
	empty, err := IsEmpty(ctx, doc)
	if err != nil {
		return ir.Snapshot{}, err
	}
	if empty {
		return ir.NewSnapshot(nil), nil
	}
	return Build(ctx, doc)
}

// CheckStale reports whether current no longer matches the fingerprint a
// batch was assembled against. The comparison is whole-document: any change
// anywhere makes the batch stale.
func CheckStale(previous string, current ir.Snapshot) bool {
	return current.Fingerprint() != previous
}
