// Package host defines the capability interface redline drives.
//
// A Host is the live document. It exposes structure through typed handles
// (ParagraphID, TableID, RowID, CellID) rather than pointers, so a backend
// can be an in-memory tree, a remote document API, or anything in between.
// Redline only decides what to call and in what order; how a primitive is
// carried out is the host's business.
//
// Every method may block on a round-trip. Implementations signal that the
// document cannot be reached by wrapping ErrHostUnavailable.
package host

import (
	"context"
	"errors"
	"strings"
)

// ErrHostUnavailable is wrapped by hosts when the document API cannot be reached.
var ErrHostUnavailable = errors.New("host unavailable")

// ErrUnsupported is wrapped by hosts when a primitive cannot apply to the
// node it was given, such as a table anchored inside a table cell.
var ErrUnsupported = errors.New("not supported by host")

// Handles are opaque, stable for the lifetime of the node they name.
type (
	ParagraphID int64
	TableID     int64
	RowID       int64
	CellID      int64
)

// ParagraphInfo describes one paragraph of the flat, document-order list.
type ParagraphInfo struct {
	ID   ParagraphID
	Text string

	// InTable is true when the paragraph's parent is a table cell.
	InTable bool

	// Table, Row and Col locate the parent cell when InTable is set.
	// Row and Col are the cell's indices within its table and row.
	Table TableID
	Row   int
	Col   int
}

// RangeKind distinguishes the shapes of addressable targets.
type RangeKind int

const (
	RangeParagraph RangeKind = iota + 1 // a whole paragraph
	RangeSpan                           // a byte span inside one paragraph
	RangeTable                          // a whole table
	RangeRow                            // one table row
)

// String returns a short label for logs.
func (k RangeKind) String() string {
	switch k {
	case RangeParagraph:
		return "paragraph"
	case RangeSpan:
		return "span"
	case RangeTable:
		return "table"
	case RangeRow:
		return "row"
	}
	return "unknown"
}

// Range is a concrete addressable target.
type Range struct {
	Kind      RangeKind
	Paragraph ParagraphID // RangeParagraph, RangeSpan
	Table     TableID     // RangeTable, RangeRow
	Row       RowID       // RangeRow

	// Start and End are byte offsets into the paragraph text (RangeSpan only).
	Start int
	End   int
}

// ParagraphRange returns a whole-paragraph range.
func ParagraphRange(id ParagraphID) Range {
	return Range{Kind: RangeParagraph, Paragraph: id}
}

// SpanRange returns a range covering text[start:end] of a paragraph.
func SpanRange(id ParagraphID, start, end int) Range {
	return Range{Kind: RangeSpan, Paragraph: id, Start: start, End: end}
}

// TableRange returns a whole-table range.
func TableRange(id TableID) Range {
	return Range{Kind: RangeTable, Table: id}
}

// RowRange returns a table-row range.
func RowRange(table TableID, row RowID) Range {
	return Range{Kind: RangeRow, Table: table, Row: row}
}

// InsertLocation says where InsertText puts text relative to a range.
type InsertLocation int

const (
	InsertStart InsertLocation = iota + 1
	InsertEnd
	InsertReplace
)

// Style is a character formatting flag.
type Style int

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleStrikethrough
	StyleHighlight
)

// String lists the set flags joined by "+", or "plain".
func (s Style) String() string {
	var parts []string
	for _, f := range []struct {
		flag Style
		name string
	}{
		{StyleBold, "bold"},
		{StyleItalic, "italic"},
		{StyleStrikethrough, "strikethrough"},
		{StyleHighlight, "highlight"},
	} {
		if s&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "plain"
	}
	return strings.Join(parts, "+")
}

// TrackingMode is the document-wide change tracking state.
type TrackingMode int

const (
	TrackingOff TrackingMode = iota
	TrackingAll
)

func (m TrackingMode) String() string {
	if m == TrackingAll {
		return "all"
	}
	return "off"
}

// SearchOptions configures Search. Redline always searches case-sensitively
// without whole-word restriction, but hosts receive the options explicitly.
type SearchOptions struct {
	MatchCase      bool
	MatchWholeWord bool
}

// Reader enumerates structure and reads text.
type Reader interface {
	// Paragraphs returns every paragraph in document order, including
	// paragraphs inside table cells.
	Paragraphs(ctx context.Context) ([]ParagraphInfo, error)

	// Tables returns the body's tables in document order.
	Tables(ctx context.Context) ([]TableID, error)

	// Rows returns a table's rows in order.
	Rows(ctx context.Context, table TableID) ([]RowID, error)

	// Cells returns a row's cells in order.
	Cells(ctx context.Context, row RowID) ([]CellID, error)

	// CellParagraphs returns the paragraphs of one cell in order.
	CellParagraphs(ctx context.Context, cell CellID) ([]ParagraphID, error)

	// Text reads the text covered by a range. Table and row ranges read
	// their paragraphs joined by newlines.
	Text(ctx context.Context, r Range) (string, error)

	// Search returns the non-overlapping matches of find inside one
	// paragraph, left to right, as RangeSpan ranges.
	Search(ctx context.Context, p ParagraphID, find string, opts SearchOptions) ([]Range, error)
}

// Writer mutates the document.
type Writer interface {
	// InsertText inserts text at the start or end of r, or replaces r's content.
	InsertText(ctx context.Context, r Range, text string, loc InsertLocation) error

	// Delete removes r's content. A whole paragraph is removed from the
	// document; a span is cut out of its paragraph.
	Delete(ctx context.Context, r Range) error

	// SetStyle turns a formatting flag on over r. color is used by
	// StyleHighlight and ignored otherwise.
	SetStyle(ctx context.Context, r Range, style Style, color string) error

	// InsertComment attaches a comment to r.
	InsertComment(ctx context.Context, r Range, text string) error

	// InsertRowsAfter inserts len(rows) rows after row (one empty row when
	// rows is empty), each populated from one entry of rows.
	InsertRowsAfter(ctx context.Context, row RowID, rows [][]string) error

	// DeleteRow removes one row.
	DeleteRow(ctx context.Context, row RowID) error

	// InsertTableAfter inserts a rows x cols table after paragraph p,
	// pre-populated from values.
	InsertTableAfter(ctx context.Context, p ParagraphID, rows, cols int, values [][]string) (TableID, error)

	// DeleteTable removes a whole table.
	DeleteTable(ctx context.Context, table TableID) error

	// TrackingMode returns the current change tracking mode.
	TrackingMode(ctx context.Context) (TrackingMode, error)

	// SetTrackingMode switches change tracking on or off.
	SetTrackingMode(ctx context.Context, mode TrackingMode) error
}

// Host is a live, mutable document.
type Host interface {
	Reader
	Writer
}
