// Package schedule orders a batch of actions so that executing them in
// sequence never invalidates an address still pending.
//
// The order is a three-level comparison:
//
//  1. Priority class ascending: paragraph, then table cell, then table row.
//  2. The location's numeric components, descending and lexicographic,
//     so higher-addressed targets run first. Missing components read as 0.
//  3. withinPara occurrence descending; actions without one sort last.
//
// Ties keep the caller's order.
package schedule

import (
	"cmp"
	"slices"

	"github.com/roach88/redline/internal/ir"
)

// Class is an action's priority class.
type Class int

const (
	// ClassParagraph covers whole-paragraph and content operations, and
	// table creation and deletion.
	ClassParagraph Class = iota

	// ClassTableCell covers operations addressed to a paragraph inside a cell.
	ClassTableCell

	// ClassTableRow covers row insertion and deletion, which shift the
	// indices of every later row. A plain delete on a row key removes the
	// row, so it belongs here too.
	ClassTableRow
)

// String returns the class label.
func (c Class) String() string {
	switch c {
	case ClassParagraph:
		return "paragraph"
	case ClassTableCell:
		return "table_cell"
	case ClassTableRow:
		return "table_row"
	}
	return "unknown"
}

// Step is one scheduled action.
type Step struct {
	// Index is the action's position in the caller's list.
	Index  int
	Action ir.Action
	Class  Class
}

// Classify returns the priority class of a.
func Classify(a ir.Action) Class {
	if a.IsRowOp() {
		return ClassTableRow
	}
	k, err := ir.ParseKey(a.Loc)
	if err != nil {
		return ClassParagraph
	}
	switch {
	case k.Kind == ir.KeyCellParagraph:
		return ClassTableCell
	case k.Kind == ir.KeyTableRow && a.Kind() == ir.KindDelete:
		return ClassTableRow
	}
	return ClassParagraph
}

// components returns the numeric tuple of a's location; unparseable
// locations read as [0].
func components(a ir.Action) []int {
	k, err := ir.ParseKey(a.Loc)
	if err != nil {
		return []int{0}
	}
	return k.Components()
}

func occurrence(a ir.Action) int {
	if w := a.Within(); w != nil {
		return w.Occurrence
	}
	return -1
}

// Compare orders two actions for execution. It returns a negative number
// when a runs before b.
func Compare(a, b ir.Action) int {
	if c := cmp.Compare(Classify(a), Classify(b)); c != 0 {
		return c
	}

	ca, cb := components(a), components(b)
	for i := 0; i < max(len(ca), len(cb)); i++ {
		x, y := at(ca, i), at(cb, i)
		if x != y {
			return cmp.Compare(y, x)
		}
	}

	return cmp.Compare(occurrence(b), occurrence(a))
}

func at(xs []int, i int) int {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}

// Plan returns the execution order for actions. The input is not modified.
func Plan(actions []ir.Action) []Step {
	steps := make([]Step, len(actions))
	for i, a := range actions {
		steps[i] = Step{Index: i, Action: a, Class: Classify(a)}
	}
	slices.SortStableFunc(steps, func(x, y Step) int {
		return Compare(x.Action, y.Action)
	})
	return steps
}

// Order returns just the original indices of Plan(actions), in execution order.
func Order(actions []ir.Action) []int {
	steps := Plan(actions)
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Index
	}
	return out
}
