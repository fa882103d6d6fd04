package ir

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// wireAction is the flat structure actions arrive in. Field names follow
// the tool-call format agents emit (mixed snake_case and camelCase).
type wireAction struct {
	Task        string      `json:"task,omitempty" yaml:"task,omitempty"`
	Action      string      `json:"action" yaml:"action"`
	Loc         string      `json:"loc" yaml:"loc"`
	Comment     string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	NewText     string      `json:"new_text,omitempty" yaml:"new_text,omitempty"`
	WithinPara  *WithinPara `json:"withinPara,omitempty" yaml:"withinPara,omitempty"`
	RowData     [][]string  `json:"rowData,omitempty" yaml:"rowData,omitempty"`
	RowCount    int         `json:"rowCount,omitempty" yaml:"rowCount,omitempty"`
	ColumnCount int         `json:"columnCount,omitempty" yaml:"columnCount,omitempty"`
	Values      [][]string  `json:"values,omitempty" yaml:"values,omitempty"`
}

func (w wireAction) toAction() (Action, error) {
	a := Action{Task: w.Task, Loc: w.Loc, Comment: w.Comment}

	switch Kind(w.Action) {
	case KindNone:
		a.Op = None{}
	case KindReplace:
		a.Op = Replace{NewText: w.NewText, Within: w.WithinPara}
	case KindAppend:
		a.Op = Append{NewText: w.NewText, Within: w.WithinPara}
	case KindPrepend:
		a.Op = Prepend{NewText: w.NewText, Within: w.WithinPara}
	case KindDelete:
		a.Op = Delete{Within: w.WithinPara}
	case KindHighlight:
		a.Op = Highlight{Within: w.WithinPara}
	case KindFormatBold:
		a.Op = FormatBold{Within: w.WithinPara}
	case KindFormatItalic:
		a.Op = FormatItalic{Within: w.WithinPara}
	case KindStrikethrough:
		a.Op = Strikethrough{Within: w.WithinPara}
	case KindDeleteRow:
		a.Op = DeleteRow{}
	case KindInsertRow:
		a.Op = InsertRow{RowData: w.RowData}
	case KindCreateTable:
		a.Op = CreateTable{RowCount: w.RowCount, ColumnCount: w.ColumnCount, Values: w.Values}
	case KindDeleteTable:
		a.Op = DeleteTable{}
	case "":
		return Action{}, NewInvalidAction("action tag is required", nil)
	default:
		return Action{}, NewInvalidAction(fmt.Sprintf("unknown action %q", w.Action), nil)
	}
	return a, nil
}

func fromAction(a Action) wireAction {
	w := wireAction{
		Task:       a.Task,
		Action:     string(a.Kind()),
		Loc:        a.Loc,
		Comment:    a.Comment,
		WithinPara: a.Within(),
	}
	w.NewText, _ = a.NewText()

	switch op := a.Op.(type) {
	case InsertRow:
		w.RowData = op.RowData
	case CreateTable:
		w.RowCount = op.RowCount
		w.ColumnCount = op.ColumnCount
		w.Values = op.Values
	}
	return w
}

// MarshalJSON encodes the action in its flat wire form.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(fromAction(a))
}

// UnmarshalJSON decodes the flat wire form into the matching variant.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.toAction()
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// MarshalYAML encodes the action in its flat wire form.
func (a Action) MarshalYAML() (any, error) {
	return fromAction(a), nil
}

// UnmarshalYAML decodes the flat wire form into the matching variant.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var w wireAction
	if err := node.Decode(&w); err != nil {
		return err
	}
	decoded, err := w.toAction()
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = decoded
	return nil
}

// DecodeActions decodes a JSON array of actions, the format agents submit.
func DecodeActions(data []byte) ([]Action, error) {
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return actions, nil
}

// toIRObject converts an action to an IRObject for canonical hashing.
// Absent optional fields are omitted rather than written as zero values.
func (a Action) toIRObject() IRObject {
	w := fromAction(a)
	obj := IRObject{
		"action": IRString(w.Action),
		"loc":    IRString(w.Loc),
	}
	if w.Task != "" {
		obj["task"] = IRString(w.Task)
	}
	if w.Comment != "" {
		obj["comment"] = IRString(w.Comment)
	}
	if _, ok := a.NewText(); ok {
		obj["new_text"] = IRString(w.NewText)
	}
	if w.WithinPara != nil {
		obj["withinPara"] = IRObject{
			"find":       IRString(w.WithinPara.Find),
			"occurrence": IRInt(w.WithinPara.Occurrence),
		}
	}
	if w.RowData != nil {
		obj["rowData"] = stringGrid(w.RowData)
	}
	if a.Kind() == KindCreateTable {
		obj["rowCount"] = IRInt(w.RowCount)
		obj["columnCount"] = IRInt(w.ColumnCount)
		if w.Values != nil {
			obj["values"] = stringGrid(w.Values)
		}
	}
	return obj
}
