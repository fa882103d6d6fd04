// Package resolve turns LocationKeys back into concrete host ranges.
//
// Resolution always reads the live document: indices are validated against
// the collections as they are now, one dimension at a time, so a failure
// names the dimension that was out of bounds.
package resolve

import (
	"context"
	"fmt"

	"github.com/roach88/redline/internal/host"
	"github.com/roach88/redline/internal/ir"
)

// Target is a resolved location.
type Target struct {
	Key   ir.Key
	Range host.Range
}

// searchOptions are fixed: case-sensitive, substring matches.
var searchOptions = host.SearchOptions{MatchCase: true, MatchWholeWord: false}

// Resolve locates loc in the live document. When within is set and loc
// names a paragraph, the target narrows to the requested occurrence of
// within.Find; within is ignored for table and row keys.
func Resolve(ctx context.Context, doc host.Reader, loc string, within *ir.WithinPara) (Target, error) {
	key, err := ir.ParseKey(loc)
	if err != nil {
		return Target{}, err
	}

	var r host.Range
	switch key.Kind {
	case ir.KeyTable:
		t, err := table(ctx, doc, loc, key.Table)
		if err != nil {
			return Target{}, err
		}
		r = host.TableRange(t)

	case ir.KeyTableRow:
		t, err := table(ctx, doc, loc, key.Table)
		if err != nil {
			return Target{}, err
		}
		rowID, err := row(ctx, doc, loc, t, key.Table, key.Row)
		if err != nil {
			return Target{}, err
		}
		r = host.RowRange(t, rowID)

	case ir.KeyParagraph:
		paras, err := doc.Paragraphs(ctx)
		if err != nil {
			return Target{}, fmt.Errorf("resolve %s: %w", loc, err)
		}
		if key.Para >= len(paras) {
			return Target{}, ir.NewIndexOutOfRange(loc, ir.DimParagraph, key.Para, len(paras), "")
		}
		r = host.ParagraphRange(paras[key.Para].ID)

	case ir.KeyCellParagraph:
		p, err := cellParagraph(ctx, doc, loc, key)
		if err != nil {
			return Target{}, err
		}
		r = host.ParagraphRange(p)

	default:
		return Target{}, ir.NewInvalidFormat(loc)
	}

	if within != nil && key.IsParagraph() {
		r, err = occurrence(ctx, doc, loc, r.Paragraph, within)
		if err != nil {
			return Target{}, err
		}
	}
	return Target{Key: key, Range: r}, nil
}

func table(ctx context.Context, doc host.Reader, loc string, idx int) (host.TableID, error) {
	tables, err := doc.Tables(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if idx >= len(tables) {
		return 0, ir.NewIndexOutOfRange(loc, ir.DimTable, idx, len(tables), "")
	}
	return tables[idx], nil
}

func row(ctx context.Context, doc host.Reader, loc string, t host.TableID, tableIdx, idx int) (host.RowID, error) {
	rows, err := doc.Rows(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if idx >= len(rows) {
		scope := fmt.Sprintf("table %d", tableIdx)
		return 0, ir.NewIndexOutOfRange(loc, ir.DimRow, idx, len(rows), scope)
	}
	return rows[idx], nil
}

func cellParagraph(ctx context.Context, doc host.Reader, loc string, key ir.Key) (host.ParagraphID, error) {
	t, err := table(ctx, doc, loc, key.Table)
	if err != nil {
		return 0, err
	}
	rowID, err := row(ctx, doc, loc, t, key.Table, key.Row)
	if err != nil {
		return 0, err
	}

	cells, err := doc.Cells(ctx, rowID)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if key.Col >= len(cells) {
		scope := fmt.Sprintf("table %d row %d", key.Table, key.Row)
		return 0, ir.NewIndexOutOfRange(loc, ir.DimColumn, key.Col, len(cells), scope)
	}

	paras, err := doc.CellParagraphs(ctx, cells[key.Col])
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if key.Para >= len(paras) {
		scope := fmt.Sprintf("table %d row %d column %d", key.Table, key.Row, key.Col)
		return 0, ir.NewIndexOutOfRange(loc, ir.DimParagraph, key.Para, len(paras), scope)
	}
	return paras[key.Para], nil
}

func occurrence(ctx context.Context, doc host.Reader, loc string, p host.ParagraphID, within *ir.WithinPara) (host.Range, error) {
	matches, err := doc.Search(ctx, p, within.Find, searchOptions)
	if err != nil {
		return host.Range{}, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if len(matches) == 0 {
		return host.Range{}, ir.NewNotFound(loc, within.Find)
	}
	if within.Occurrence < 0 || within.Occurrence >= len(matches) {
		scope := fmt.Sprintf("%q", within.Find)
		return host.Range{}, ir.NewIndexOutOfRange(loc, ir.DimOccurrence, within.Occurrence, len(matches), scope)
	}
	return matches[within.Occurrence], nil
}

// Text reads the text a resolved target covers.
func Text(ctx context.Context, doc host.Reader, t Target) (string, error) {
	text, err := doc.Text(ctx, t.Range)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", t.Key, err)
	}
	return text, nil
}
