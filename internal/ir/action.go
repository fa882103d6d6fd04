package ir

// Kind is the action tag carried on the wire as "action".
type Kind string

const (
	KindNone          Kind = "none"
	KindReplace       Kind = "replace"
	KindAppend        Kind = "append"
	KindPrepend       Kind = "prepend"
	KindDelete        Kind = "delete"
	KindHighlight     Kind = "highlight"
	KindFormatBold    Kind = "format_bold"
	KindFormatItalic  Kind = "format_italic"
	KindStrikethrough Kind = "strikethrough"
	KindDeleteRow     Kind = "delete_row"
	KindInsertRow     Kind = "insert_row"
	KindCreateTable   Kind = "create_table"
	KindDeleteTable   Kind = "delete_table"
)

// Kinds lists every action tag in declaration order.
var Kinds = []Kind{
	KindNone, KindReplace, KindAppend, KindPrepend, KindDelete,
	KindHighlight, KindFormatBold, KindFormatItalic, KindStrikethrough,
	KindDeleteRow, KindInsertRow, KindCreateTable, KindDeleteTable,
}

// WithinPara narrows a paragraph location to the Occurrence-th (0-based)
// non-overlapping, case-sensitive match of Find.
type WithinPara struct {
	Find       string `json:"find" yaml:"find" validate:"required"`
	Occurrence int    `json:"occurrence" yaml:"occurrence" validate:"gte=0"`
}

// Action is one edit in a batch.
//
// Task, Loc and Comment are common to every variant; everything else lives
// in Op, whose concrete type is the variant.
type Action struct {
	// Task is a human label ("Fix typo in clause 3").
	Task string

	// Loc is the LocationKey the operation targets. Kept as the raw string:
	// an unparseable key is a per-action failure at execution, not a decode
	// failure of the whole batch.
	Loc string

	// Comment, if non-empty, is attached to the target before the operation.
	Comment string

	// Op is the variant payload.
	Op Operation
}

// Operation is the sealed set of action variants.
type Operation interface {
	Kind() Kind
	operation()
}

// None does nothing.
type None struct{}

// Replace swaps the target's content for NewText.
type Replace struct {
	NewText string
	Within  *WithinPara `validate:"omitempty"`
}

// Append inserts NewText at the end of the target.
type Append struct {
	NewText string
	Within  *WithinPara `validate:"omitempty"`
}

// Prepend inserts NewText at the start of the target.
type Prepend struct {
	NewText string
	Within  *WithinPara `validate:"omitempty"`
}

// Delete removes the target's content.
type Delete struct {
	Within *WithinPara `validate:"omitempty"`
}

// Highlight sets the highlight flag on the target.
type Highlight struct {
	Within *WithinPara `validate:"omitempty"`
}

// FormatBold sets the bold flag on the target.
type FormatBold struct {
	Within *WithinPara `validate:"omitempty"`
}

// FormatItalic sets the italic flag on the target.
type FormatItalic struct {
	Within *WithinPara `validate:"omitempty"`
}

// Strikethrough sets the strikethrough flag on the target.
type Strikethrough struct {
	Within *WithinPara `validate:"omitempty"`
}

// DeleteRow removes the row named by a table-row key.
type DeleteRow struct{}

// InsertRow inserts one row per RowData entry immediately after the row
// named by a table-row key. An empty RowData inserts a single empty row.
type InsertRow struct {
	RowData [][]string `validate:"omitempty,max=100"`
}

// CreateTable inserts a RowCount x ColumnCount table after the paragraph
// named by a paragraph key, pre-populated from Values.
type CreateTable struct {
	RowCount    int        `validate:"gt=0,lte=100"`
	ColumnCount int        `validate:"gt=0,lte=63"`
	Values      [][]string `validate:"omitempty"`
}

// DeleteTable removes the table named by a table key.
type DeleteTable struct{}

func (None) Kind() Kind          { return KindNone }
func (Replace) Kind() Kind       { return KindReplace }
func (Append) Kind() Kind        { return KindAppend }
func (Prepend) Kind() Kind       { return KindPrepend }
func (Delete) Kind() Kind        { return KindDelete }
func (Highlight) Kind() Kind     { return KindHighlight }
func (FormatBold) Kind() Kind    { return KindFormatBold }
func (FormatItalic) Kind() Kind  { return KindFormatItalic }
func (Strikethrough) Kind() Kind { return KindStrikethrough }
func (DeleteRow) Kind() Kind     { return KindDeleteRow }
func (InsertRow) Kind() Kind     { return KindInsertRow }
func (CreateTable) Kind() Kind   { return KindCreateTable }
func (DeleteTable) Kind() Kind   { return KindDeleteTable }

func (None) operation()          {}
func (Replace) operation()       {}
func (Append) operation()        {}
func (Prepend) operation()       {}
func (Delete) operation()        {}
func (Highlight) operation()     {}
func (FormatBold) operation()    {}
func (FormatItalic) operation()  {}
func (Strikethrough) operation() {}
func (DeleteRow) operation()     {}
func (InsertRow) operation()     {}
func (CreateTable) operation()   {}
func (DeleteTable) operation()   {}

// Kind returns the action tag. A nil Op reads as KindNone.
func (a Action) Kind() Kind {
	if a.Op == nil {
		return KindNone
	}
	return a.Op.Kind()
}

// Within returns the withinPara refinement, or nil for variants without one.
func (a Action) Within() *WithinPara {
	switch op := a.Op.(type) {
	case Replace:
		return op.Within
	case Append:
		return op.Within
	case Prepend:
		return op.Within
	case Delete:
		return op.Within
	case Highlight:
		return op.Within
	case FormatBold:
		return op.Within
	case FormatItalic:
		return op.Within
	case Strikethrough:
		return op.Within
	}
	return nil
}

// NewText returns the inserted text for replace/append/prepend.
func (a Action) NewText() (string, bool) {
	switch op := a.Op.(type) {
	case Replace:
		return op.NewText, true
	case Append:
		return op.NewText, true
	case Prepend:
		return op.NewText, true
	}
	return "", false
}

// WithNewText returns a copy of the action with its inserted text replaced.
// Actions without text are returned unchanged. Used when a reviewer edits
// the proposed text before applying.
func (a Action) WithNewText(text string) Action {
	switch op := a.Op.(type) {
	case Replace:
		op.NewText = text
		a.Op = op
	case Append:
		op.NewText = text
		a.Op = op
	case Prepend:
		op.NewText = text
		a.Op = op
	}
	return a
}

// IsRowOp reports whether the action changes table row indices.
func (a Action) IsRowOp() bool {
	k := a.Kind()
	return k == KindDeleteRow || k == KindInsertRow
}
