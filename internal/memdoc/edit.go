package memdoc

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/redline/internal/host"
)

// InsertText implements host.Writer. Text containing newlines splits the
// paragraph, each line after the first becoming a new paragraph.
func (d *Document) InsertText(ctx context.Context, r host.Range, text string, loc host.InsertLocation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	if r.Kind != host.RangeParagraph && r.Kind != host.RangeSpan {
		return fmt.Errorf("memdoc: cannot insert text into a %s range", r.Kind)
	}

	p, start, end, err := d.span(r)
	if err != nil {
		return err
	}

	switch loc {
	case host.InsertStart:
		p.runs = insertRuns(p.runs, start, text)
	case host.InsertEnd:
		p.runs = insertRuns(p.runs, end, text)
	case host.InsertReplace:
		style, color := styleOf(p.runs, start)
		if start < end {
			d.record(RevisionDelete, runsText(p.runs)[start:end])
		}
		left, right := splitRuns(deleteRuns(p.runs, start, end), start)
		p.runs = normalizeRuns(append(append(left, run{text: text, style: style, color: color}), right...))
	default:
		return fmt.Errorf("memdoc: invalid insert location %d", loc)
	}

	if text != "" {
		d.record(RevisionInsert, text)
	}
	if strings.Contains(text, "\n") {
		d.splitParagraph(p)
	}
	return nil
}

// styleOf returns the formatting of the character at off, falling back to
// the character before it.
func styleOf(runs []run, off int) (host.Style, string) {
	_, right := splitRuns(runs, off)
	if len(right) > 0 {
		return right[0].style, right[0].color
	}
	return styleAt(runs, off)
}

// splitParagraph breaks p at its newlines into consecutive paragraphs.
func (d *Document) splitParagraph(p *paragraph) {
	lines := splitLines(p.runs)
	p.runs = lines[0]

	added := make([]*paragraph, 0, len(lines)-1)
	for _, line := range lines[1:] {
		np := d.newParagraph("", p.cell)
		np.runs = line
		added = append(added, np)
	}

	if p.cell != nil {
		i := slices.Index(p.cell.paras, p)
		p.cell.paras = slices.Insert(p.cell.paras, i+1, added...)
		return
	}
	blocks := make([]block, len(added))
	for i, np := range added {
		blocks[i] = block{para: np}
	}
	i := d.bodyIndex(block{para: p})
	d.body = slices.Insert(d.body, i+1, blocks...)
}

func (d *Document) bodyIndex(b block) int {
	return slices.IndexFunc(d.body, func(x block) bool {
		return (b.para != nil && x.para == b.para) || (b.table != nil && x.table == b.table)
	})
}

// Delete implements host.Writer. A paragraph that is the last one of its
// cell, or the only block of the body, is emptied instead of removed.
func (d *Document) Delete(ctx context.Context, r host.Range) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	switch r.Kind {
	case host.RangeParagraph:
		p, err := d.paragraph(r.Paragraph)
		if err != nil {
			return err
		}
		d.record(RevisionDelete, runsText(p.runs))
		d.removeParagraph(p)
	case host.RangeSpan:
		p, start, end, err := d.span(r)
		if err != nil {
			return err
		}
		d.record(RevisionDelete, runsText(p.runs)[start:end])
		p.runs = deleteRuns(p.runs, start, end)
	case host.RangeTable:
		t, err := d.table(r.Table)
		if err != nil {
			return err
		}
		d.removeTable(t)
	case host.RangeRow:
		rw, err := d.row(r.Row)
		if err != nil {
			return err
		}
		d.removeRow(rw)
	default:
		return fmt.Errorf("memdoc: invalid range kind %d", r.Kind)
	}
	return nil
}

func (d *Document) removeParagraph(p *paragraph) {
	if c := p.cell; c != nil {
		if len(c.paras) == 1 {
			p.runs = nil
			return
		}
		c.paras = slices.DeleteFunc(c.paras, func(x *paragraph) bool { return x == p })
		delete(d.paras, p.id)
		return
	}
	if len(d.body) == 1 {
		p.runs = nil
		return
	}
	d.body = slices.DeleteFunc(d.body, func(b block) bool { return b.para == p })
	delete(d.paras, p.id)
}

func (d *Document) removeTable(t *table) {
	d.record(RevisionDeleteTable, "")
	for _, r := range t.rows {
		d.forgetRow(r)
	}
	delete(d.tables, t.id)
	d.body = slices.DeleteFunc(d.body, func(b block) bool { return b.table == t })
}

// removeRow deletes a row; a table left without rows is removed too.
func (d *Document) removeRow(r *row) {
	d.record(RevisionDeleteRow, "")
	t := r.table
	t.rows = slices.DeleteFunc(t.rows, func(x *row) bool { return x == r })
	d.forgetRow(r)
	if len(t.rows) == 0 {
		delete(d.tables, t.id)
		d.body = slices.DeleteFunc(d.body, func(b block) bool { return b.table == t })
	}
}

func (d *Document) forgetRow(r *row) {
	for _, c := range r.cells {
		for _, p := range c.paras {
			delete(d.paras, p.id)
		}
		delete(d.cells, c.id)
	}
	delete(d.rows, r.id)
}

// SetStyle implements host.Writer.
func (d *Document) SetStyle(ctx context.Context, r host.Range, style host.Style, color string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	if r.Kind == host.RangeSpan {
		p, start, end, err := d.span(r)
		if err != nil {
			return err
		}
		p.runs = styleRuns(p.runs, start, end, style, color)
		d.record(RevisionFormat, runsText(p.runs)[start:end])
		return nil
	}

	paras, err := d.rangeParagraphs(r)
	if err != nil {
		return err
	}
	for _, p := range paras {
		p.runs = styleRuns(p.runs, 0, runsLen(p.runs), style, color)
		d.record(RevisionFormat, runsText(p.runs))
	}
	return nil
}

// InsertComment implements host.Writer.
func (d *Document) InsertComment(ctx context.Context, r host.Range, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	anchor, err := d.text(r)
	if err != nil {
		return err
	}
	d.comments = append(d.comments, Comment{Anchor: anchor, Text: text})
	return nil
}

// InsertRowsAfter implements host.Writer. New rows take the width of the
// row they follow; row data wider than that is rejected.
func (d *Document) InsertRowsAfter(ctx context.Context, id host.RowID, data [][]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	anchor, err := d.row(id)
	if err != nil {
		return err
	}
	width := len(anchor.cells)
	for i, values := range data {
		if len(values) > width {
			return fmt.Errorf("memdoc: row data %d has %d cells, table has %d columns", i, len(values), width)
		}
	}
	if len(data) == 0 {
		data = [][]string{nil}
	}

	t := anchor.table
	added := make([]*row, len(data))
	for i, values := range data {
		added[i] = d.newRow(t, values, width)
		d.record(RevisionInsertRow, strings.Join(values, "\t"))
	}
	i := slices.Index(t.rows, anchor)
	t.rows = slices.Insert(t.rows, i+1, added...)
	return nil
}

// DeleteRow implements host.Writer.
func (d *Document) DeleteRow(ctx context.Context, id host.RowID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	r, err := d.row(id)
	if err != nil {
		return err
	}
	d.removeRow(r)
	return nil
}

// InsertTableAfter implements host.Writer. Tables cannot be nested, so the
// anchor must be a body paragraph.
func (d *Document) InsertTableAfter(ctx context.Context, id host.ParagraphID, rows, cols int, values [][]string) (host.TableID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return 0, err
	}

	p, err := d.paragraph(id)
	if err != nil {
		return 0, err
	}
	if p.cell != nil {
		return 0, fmt.Errorf("memdoc: cannot insert a table inside a table cell: %w", host.ErrUnsupported)
	}
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("memdoc: invalid table size %dx%d", rows, cols)
	}
	if len(values) > rows {
		return 0, fmt.Errorf("memdoc: %d value rows for a %d-row table", len(values), rows)
	}
	for i, v := range values {
		if len(v) > cols {
			return 0, fmt.Errorf("memdoc: value row %d has %d cells, table has %d columns", i, len(v), cols)
		}
	}

	t := d.newTable(rows, cols, values)
	i := d.bodyIndex(block{para: p})
	d.body = slices.Insert(d.body, i+1, block{table: t})
	d.record(RevisionInsertTable, fmt.Sprintf("%dx%d", rows, cols))
	return t.id, nil
}

// DeleteTable implements host.Writer.
func (d *Document) DeleteTable(ctx context.Context, id host.TableID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}

	t, err := d.table(id)
	if err != nil {
		return err
	}
	d.removeTable(t)
	return nil
}
