// Package memdoc is an in-memory document implementing host.Host.
//
// Nodes live in arenas keyed by the host handle types, so handles stay valid
// while the tree around them changes and go stale (returning an error) once
// their node is removed. Paragraph text is held as styled runs; when change
// tracking is on, every mutation is also appended to a revision log.
//
// memdoc backs the test suite, the harness, and the CLI, which reads and
// writes documents as YAML fixtures.
package memdoc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/redline/internal/host"
)

// Document is an in-memory host document. It is safe for concurrent use;
// calls are serialized by an internal lock.
type Document struct {
	mu sync.Mutex

	nextID int64
	body   []block

	paras  map[host.ParagraphID]*paragraph
	tables map[host.TableID]*table
	rows   map[host.RowID]*row
	cells  map[host.CellID]*cell

	tracking  host.TrackingMode
	revisions []Revision
	comments  []Comment

	offline bool
}

// block is one top-level body element: exactly one field is set.
type block struct {
	para  *paragraph
	table *table
}

type paragraph struct {
	id   host.ParagraphID
	runs []run
	cell *cell // nil for body paragraphs
}

type table struct {
	id   host.TableID
	rows []*row
}

type row struct {
	id    host.RowID
	table *table
	cells []*cell
}

type cell struct {
	id    host.CellID
	row   *row
	paras []*paragraph
}

// RevisionKind labels a tracked change.
type RevisionKind string

const (
	RevisionInsert      RevisionKind = "insert"
	RevisionDelete      RevisionKind = "delete"
	RevisionFormat      RevisionKind = "format"
	RevisionInsertRow   RevisionKind = "insert_row"
	RevisionDeleteRow   RevisionKind = "delete_row"
	RevisionInsertTable RevisionKind = "insert_table"
	RevisionDeleteTable RevisionKind = "delete_table"
)

// Revision is one change recorded while tracking was on.
type Revision struct {
	Kind RevisionKind
	Text string
}

// Comment is a comment attached to a range. Anchor is the text the range
// covered when the comment was inserted.
type Comment struct {
	Anchor string
	Text   string
}

// StyledRun is a read-only view of a formatted stretch of paragraph text.
type StyledRun struct {
	Text  string
	Style host.Style
	Color string
}

var _ host.Host = (*Document)(nil)

func newDocument() *Document {
	return &Document{
		paras:  make(map[host.ParagraphID]*paragraph),
		tables: make(map[host.TableID]*table),
		rows:   make(map[host.RowID]*row),
		cells:  make(map[host.CellID]*cell),
	}
}

func (d *Document) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *Document) newParagraph(text string, c *cell) *paragraph {
	p := &paragraph{id: host.ParagraphID(d.id()), cell: c}
	if text != "" {
		p.runs = []run{{text: text}}
	}
	d.paras[p.id] = p
	return p
}

// newCell creates a cell whose paragraphs are text split on newlines.
func (d *Document) newCell(r *row, text string) *cell {
	c := &cell{id: host.CellID(d.id()), row: r}
	for _, line := range strings.Split(text, "\n") {
		c.paras = append(c.paras, d.newParagraph(line, c))
	}
	d.cells[c.id] = c
	return c
}

func (d *Document) newRow(t *table, values []string, width int) *row {
	r := &row{id: host.RowID(d.id()), table: t}
	for col := 0; col < width; col++ {
		text := ""
		if col < len(values) {
			text = values[col]
		}
		r.cells = append(r.cells, d.newCell(r, text))
	}
	d.rows[r.id] = r
	return r
}

func (d *Document) newTable(rows, cols int, values [][]string) *table {
	t := &table{id: host.TableID(d.id())}
	for i := 0; i < rows; i++ {
		var v []string
		if i < len(values) {
			v = values[i]
		}
		t.rows = append(t.rows, d.newRow(t, v, cols))
	}
	d.tables[t.id] = t
	return t
}

// SetOffline makes every subsequent call fail with host.ErrHostUnavailable
// until it is called again with false.
func (d *Document) SetOffline(offline bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offline = offline
}

// check must be called with d.mu held.
func (d *Document) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.offline {
		return fmt.Errorf("memdoc: %w", host.ErrHostUnavailable)
	}
	return nil
}

func (d *Document) paragraph(id host.ParagraphID) (*paragraph, error) {
	p, ok := d.paras[id]
	if !ok {
		return nil, fmt.Errorf("memdoc: unknown paragraph %d", id)
	}
	return p, nil
}

func (d *Document) table(id host.TableID) (*table, error) {
	t, ok := d.tables[id]
	if !ok {
		return nil, fmt.Errorf("memdoc: unknown table %d", id)
	}
	return t, nil
}

func (d *Document) row(id host.RowID) (*row, error) {
	r, ok := d.rows[id]
	if !ok {
		return nil, fmt.Errorf("memdoc: unknown row %d", id)
	}
	return r, nil
}

// Paragraphs implements host.Reader.
func (d *Document) Paragraphs(ctx context.Context) ([]host.ParagraphInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	var out []host.ParagraphInfo
	for _, b := range d.body {
		if b.para != nil {
			out = append(out, host.ParagraphInfo{ID: b.para.id, Text: runsText(b.para.runs)})
			continue
		}
		for ri, r := range b.table.rows {
			for ci, c := range r.cells {
				for _, p := range c.paras {
					out = append(out, host.ParagraphInfo{
						ID:      p.id,
						Text:    runsText(p.runs),
						InTable: true,
						Table:   b.table.id,
						Row:     ri,
						Col:     ci,
					})
				}
			}
		}
	}
	return out, nil
}

// Tables implements host.Reader.
func (d *Document) Tables(ctx context.Context) ([]host.TableID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	var out []host.TableID
	for _, b := range d.body {
		if b.table != nil {
			out = append(out, b.table.id)
		}
	}
	return out, nil
}

// Rows implements host.Reader.
func (d *Document) Rows(ctx context.Context, id host.TableID) ([]host.RowID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	t, err := d.table(id)
	if err != nil {
		return nil, err
	}
	out := make([]host.RowID, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.id
	}
	return out, nil
}

// Cells implements host.Reader.
func (d *Document) Cells(ctx context.Context, id host.RowID) ([]host.CellID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	r, err := d.row(id)
	if err != nil {
		return nil, err
	}
	out := make([]host.CellID, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.id
	}
	return out, nil
}

// CellParagraphs implements host.Reader.
func (d *Document) CellParagraphs(ctx context.Context, id host.CellID) ([]host.ParagraphID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	c, ok := d.cells[id]
	if !ok {
		return nil, fmt.Errorf("memdoc: unknown cell %d", id)
	}
	out := make([]host.ParagraphID, len(c.paras))
	for i, p := range c.paras {
		out[i] = p.id
	}
	return out, nil
}

// Text implements host.Reader.
func (d *Document) Text(ctx context.Context, r host.Range) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return "", err
	}
	return d.text(r)
}

func (d *Document) text(r host.Range) (string, error) {
	switch r.Kind {
	case host.RangeParagraph, host.RangeSpan:
		p, start, end, err := d.span(r)
		if err != nil {
			return "", err
		}
		return runsText(p.runs)[start:end], nil
	case host.RangeTable, host.RangeRow:
		paras, err := d.rangeParagraphs(r)
		if err != nil {
			return "", err
		}
		lines := make([]string, len(paras))
		for i, p := range paras {
			lines[i] = runsText(p.runs)
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("memdoc: invalid range kind %d", r.Kind)
}

// span returns the paragraph a text range lives in and its byte bounds.
func (d *Document) span(r host.Range) (*paragraph, int, int, error) {
	p, err := d.paragraph(r.Paragraph)
	if err != nil {
		return nil, 0, 0, err
	}
	n := runsLen(p.runs)
	if r.Kind == host.RangeParagraph {
		return p, 0, n, nil
	}
	if r.Start < 0 || r.End < r.Start || r.End > n {
		return nil, 0, 0, fmt.Errorf("memdoc: span [%d,%d) outside paragraph %d of length %d", r.Start, r.End, r.Paragraph, n)
	}
	return p, r.Start, r.End, nil
}

// rangeParagraphs lists the paragraphs inside a table or row range.
func (d *Document) rangeParagraphs(r host.Range) ([]*paragraph, error) {
	var rows []*row
	switch r.Kind {
	case host.RangeTable:
		t, err := d.table(r.Table)
		if err != nil {
			return nil, err
		}
		rows = t.rows
	case host.RangeRow:
		rw, err := d.row(r.Row)
		if err != nil {
			return nil, err
		}
		rows = []*row{rw}
	default:
		p, err := d.paragraph(r.Paragraph)
		if err != nil {
			return nil, err
		}
		return []*paragraph{p}, nil
	}

	var out []*paragraph
	for _, rw := range rows {
		for _, c := range rw.cells {
			out = append(out, c.paras...)
		}
	}
	return out, nil
}

// Search implements host.Reader.
func (d *Document) Search(ctx context.Context, id host.ParagraphID, find string, opts host.SearchOptions) ([]host.Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}

	p, err := d.paragraph(id)
	if err != nil {
		return nil, err
	}
	if find == "" {
		return nil, nil
	}

	text := runsText(p.runs)
	var out []host.Range
	for i := 0; i+len(find) <= len(text); {
		if matchAt(text, i, find, opts) {
			out = append(out, host.SpanRange(id, i, i+len(find)))
			i += len(find)
			continue
		}
		i++
	}
	return out, nil
}

func matchAt(text string, i int, find string, opts host.SearchOptions) bool {
	candidate := text[i : i+len(find)]
	if opts.MatchCase {
		if candidate != find {
			return false
		}
	} else if !strings.EqualFold(candidate, find) {
		return false
	}
	if !opts.MatchWholeWord {
		return true
	}
	return !isWordByte(text, i-1) && !isWordByte(text, i+len(find))
}

func isWordByte(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return c == '_' || c >= 0x80 ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// TrackingMode implements host.Writer.
func (d *Document) TrackingMode(ctx context.Context) (host.TrackingMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return host.TrackingOff, err
	}
	return d.tracking, nil
}

// SetTrackingMode implements host.Writer.
func (d *Document) SetTrackingMode(ctx context.Context, mode host.TrackingMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	d.tracking = mode
	return nil
}

// Revisions returns the tracked changes recorded so far.
func (d *Document) Revisions() []Revision {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Revision(nil), d.revisions...)
}

// Comments returns the comments inserted so far.
func (d *Document) Comments() []Comment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Comment(nil), d.comments...)
}

// Runs returns the formatted runs of one paragraph.
func (d *Document) Runs(id host.ParagraphID) ([]StyledRun, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.paragraph(id)
	if err != nil {
		return nil, err
	}
	out := make([]StyledRun, len(p.runs))
	for i, r := range p.runs {
		out[i] = StyledRun{Text: r.text, Style: r.style, Color: r.color}
	}
	return out, nil
}

func (d *Document) record(kind RevisionKind, text string) {
	if d.tracking == host.TrackingAll {
		d.revisions = append(d.revisions, Revision{Kind: kind, Text: text})
	}
}
