package ir

import (
	"fmt"
	"regexp"
	"strconv"
)

// KeyKind identifies which LocationKey grammar a key belongs to.
type KeyKind int

const (
	// KeyInvalid is the zero value; no grammar matched.
	KeyInvalid KeyKind = iota

	// KeyTable addresses a whole table: <docPos>.t<table>
	KeyTable

	// KeyTableRow addresses one table row: <docPos>.t<table>.r<row>
	KeyTableRow

	// KeyParagraph addresses a paragraph by flat index: <docPos>.p<n>
	KeyParagraph

	// KeyCellParagraph addresses a paragraph inside a table cell:
	// <docPos>.t<table>.r<row>.c<col>.p<para>
	KeyCellParagraph
)

// String returns the grammar name used in logs and CLI output.
func (k KeyKind) String() string {
	switch k {
	case KeyTable:
		return "table"
	case KeyTableRow:
		return "tableRow"
	case KeyParagraph:
		return "paragraph"
	case KeyCellParagraph:
		return "tableCellParagraph"
	default:
		return "invalid"
	}
}

// num matches a 0-based integer without leading zeros.
const num = `(0|[1-9][0-9]*)`

// Grammars are listed in match priority. Table-only and table-row keys are
// checked before the paragraph forms because their suffixes are shorter.
var keyGrammars = []struct {
	kind KeyKind
	re   *regexp.Regexp
}{
	{KeyTable, regexp.MustCompile(`^` + num + `\.t` + num + `$`)},
	{KeyTableRow, regexp.MustCompile(`^` + num + `\.t` + num + `\.r` + num + `$`)},
	{KeyParagraph, regexp.MustCompile(`^` + num + `\.p` + num + `$`)},
	{KeyCellParagraph, regexp.MustCompile(`^` + num + `\.t` + num + `\.r` + num + `\.c` + num + `\.p` + num + `$`)},
}

// Key is a parsed LocationKey.
//
// Field usage by kind:
//   - KeyParagraph:     DocPos, Para (flat paragraph index)
//   - KeyCellParagraph: DocPos, Table, Row, Col, Para (index local to the cell)
//   - KeyTable:         DocPos, Table
//   - KeyTableRow:      DocPos, Table, Row
type Key struct {
	Kind   KeyKind
	DocPos int
	Table  int
	Row    int
	Col    int
	Para   int
}

// ParagraphKey builds a paragraph key.
func ParagraphKey(docPos, n int) Key {
	return Key{Kind: KeyParagraph, DocPos: docPos, Para: n}
}

// CellParagraphKey builds a table-cell-paragraph key.
func CellParagraphKey(docPos, table, row, col, para int) Key {
	return Key{Kind: KeyCellParagraph, DocPos: docPos, Table: table, Row: row, Col: col, Para: para}
}

// TableKey builds a whole-table key.
func TableKey(docPos, table int) Key {
	return Key{Kind: KeyTable, DocPos: docPos, Table: table}
}

// TableRowKey builds a table-row key.
func TableRowKey(docPos, table, row int) Key {
	return Key{Kind: KeyTableRow, DocPos: docPos, Table: table, Row: row}
}

// ParseKey parses a LocationKey string.
// Returns an *Error with ErrCodeInvalidFormat if no grammar matches.
func ParseKey(s string) (Key, error) {
	for _, g := range keyGrammars {
		m := g.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		nums := make([]int, len(m)-1)
		for i, part := range m[1:] {
			n, err := strconv.Atoi(part)
			if err != nil {
				// Only reachable on overflow.
				return Key{}, NewInvalidFormat(s)
			}
			nums[i] = n
		}
		return keyFromComponents(g.kind, nums), nil
	}
	return Key{}, NewInvalidFormat(s)
}

// MustParseKey is like ParseKey but panics on error.
// Use only in tests or when the key is a literal.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func keyFromComponents(kind KeyKind, n []int) Key {
	switch kind {
	case KeyTable:
		return TableKey(n[0], n[1])
	case KeyTableRow:
		return TableRowKey(n[0], n[1], n[2])
	case KeyParagraph:
		return ParagraphKey(n[0], n[1])
	case KeyCellParagraph:
		return CellParagraphKey(n[0], n[1], n[2], n[3], n[4])
	}
	return Key{}
}

// Components returns the key's numeric components in grammar order,
// docPos first. Invalid keys yield [0].
func (k Key) Components() []int {
	switch k.Kind {
	case KeyTable:
		return []int{k.DocPos, k.Table}
	case KeyTableRow:
		return []int{k.DocPos, k.Table, k.Row}
	case KeyParagraph:
		return []int{k.DocPos, k.Para}
	case KeyCellParagraph:
		return []int{k.DocPos, k.Table, k.Row, k.Col, k.Para}
	}
	return []int{0}
}

// String formats the key in its grammar.
func (k Key) String() string {
	switch k.Kind {
	case KeyTable:
		return fmt.Sprintf("%d.t%d", k.DocPos, k.Table)
	case KeyTableRow:
		return fmt.Sprintf("%d.t%d.r%d", k.DocPos, k.Table, k.Row)
	case KeyParagraph:
		return fmt.Sprintf("%d.p%d", k.DocPos, k.Para)
	case KeyCellParagraph:
		return fmt.Sprintf("%d.t%d.r%d.c%d.p%d", k.DocPos, k.Table, k.Row, k.Col, k.Para)
	}
	return ""
}

// IsParagraph reports whether the key names a single paragraph
// (top-level or inside a cell).
func (k Key) IsParagraph() bool {
	return k.Kind == KeyParagraph || k.Kind == KeyCellParagraph
}
