package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// actionValidate is the validator instance for action payloads.
var actionValidate = validator.New()

// Validate checks the action's payload against its variant's rules.
//
// Location grammar is NOT checked here: an unparseable key is reported by
// the resolver as InvalidFormat when the action executes, so that one bad
// key never rejects the rest of the batch.
func (a Action) Validate() error {
	if a.Op == nil {
		return NewInvalidAction("action has no operation", nil)
	}
	if a.Loc == "" && a.Kind() != KindNone {
		return NewInvalidAction("loc is required", nil)
	}

	if err := actionValidate.Struct(a.Op); err != nil {
		return NewInvalidAction(describeValidation(a.Kind(), err), err)
	}

	if ct, ok := a.Op.(CreateTable); ok {
		if len(ct.Values) > ct.RowCount {
			return NewInvalidAction(fmt.Sprintf("create_table: %d value rows exceed rowCount %d", len(ct.Values), ct.RowCount), nil)
		}
		for i, row := range ct.Values {
			if len(row) > ct.ColumnCount {
				return NewInvalidAction(fmt.Sprintf("create_table: values[%d] has %d cells, columnCount is %d", i, len(row), ct.ColumnCount), nil)
			}
		}
	}
	return nil
}

// describeValidation flattens validator field errors into one line.
func describeValidation(kind Kind, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Sprintf("%s: %s", kind, strings.Join(parts, "; "))
}
