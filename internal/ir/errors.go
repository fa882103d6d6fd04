package ir

import (
	"errors"
	"fmt"
)

// Error is the single structured error surfaced by redline.
//
// Per-action errors (InvalidFormat, IndexOutOfRange, NotFound, InvalidAction,
// Unsupported) are reported as data against the failing action's index.
// Batch errors (StaleDocument, HostUnavailable) stop the whole batch.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Loc is the LocationKey being resolved, if any.
	Loc string

	// Dimension names the collection whose bounds were exceeded
	// (IndexOutOfRange only).
	Dimension Dimension

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeInvalidFormat indicates a LocationKey matches none of the grammars.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// ErrCodeIndexOutOfRange indicates a parsed index exceeds a live collection.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeNotFound indicates a withinPara search had zero matches.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStaleDocument indicates the document changed since the batch was assembled.
	ErrCodeStaleDocument ErrorCode = "STALE_DOCUMENT"

	// ErrCodeHostUnavailable indicates the host document API could not be reached.
	ErrCodeHostUnavailable ErrorCode = "HOST_UNAVAILABLE"

	// ErrCodeInvalidAction indicates an action payload failed validation.
	ErrCodeInvalidAction ErrorCode = "INVALID_ACTION"

	// ErrCodeUnsupported indicates an operation cannot apply to the resolved target.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Dimension names an addressable collection.
type Dimension string

const (
	DimTable      Dimension = "table"
	DimRow        Dimension = "row"
	DimColumn     Dimension = "column"
	DimParagraph  Dimension = "paragraph"
	DimOccurrence Dimension = "occurrence"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Loc != "" {
		return fmt.Sprintf("%s: %s (loc=%s)", e.Code, e.Message, e.Loc)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// BatchFatal reports whether the error stops the whole batch.
func (e *Error) BatchFatal() bool {
	return e.Code == ErrCodeStaleDocument || e.Code == ErrCodeHostUnavailable
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsInvalidFormat returns true if err is an InvalidFormat error.
func IsInvalidFormat(err error) bool { return CodeOf(err) == ErrCodeInvalidFormat }

// IsIndexOutOfRange returns true if err is an IndexOutOfRange error.
func IsIndexOutOfRange(err error) bool { return CodeOf(err) == ErrCodeIndexOutOfRange }

// IsNotFound returns true if err is a NotFound error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsStale returns true if err is a StaleDocument error.
func IsStale(err error) bool { return CodeOf(err) == ErrCodeStaleDocument }

// IsHostUnavailable returns true if err is a HostUnavailable error.
func IsHostUnavailable(err error) bool { return CodeOf(err) == ErrCodeHostUnavailable }

// DimensionOf returns the failing dimension of an IndexOutOfRange error.
func DimensionOf(err error) Dimension {
	var e *Error
	if errors.As(err, &e) {
		return e.Dimension
	}
	return ""
}

// NewInvalidFormat creates an Error for a key matching no grammar.
func NewInvalidFormat(loc string) *Error {
	return &Error{
		Code:    ErrCodeInvalidFormat,
		Message: fmt.Sprintf("invalid location format: %q", loc),
		Loc:     loc,
	}
}

// NewWrongKind creates an InvalidFormat Error for a key of the wrong grammar
// for the operation (e.g. delete_row with a paragraph key).
func NewWrongKind(loc string, want KeyKind) *Error {
	return &Error{
		Code:    ErrCodeInvalidFormat,
		Message: fmt.Sprintf("expected a %s location", want),
		Loc:     loc,
	}
}

// NewIndexOutOfRange creates an Error for an index beyond a live collection.
// count is the collection size; scope optionally names the parent, e.g.
// "table 0 row 2".
func NewIndexOutOfRange(loc string, dim Dimension, index, count int, scope string) *Error {
	bounds := "empty"
	if count > 0 {
		bounds = fmt.Sprintf("0-%d", count-1)
	}
	msg := fmt.Sprintf("%s index %d out of range (%s)", dim, index, bounds)
	if scope != "" {
		msg = fmt.Sprintf("%s index %d out of range for %s (%s)", dim, index, scope, bounds)
	}
	return &Error{
		Code:      ErrCodeIndexOutOfRange,
		Message:   msg,
		Loc:       loc,
		Dimension: dim,
		Details: map[string]string{
			"index": fmt.Sprintf("%d", index),
			"count": fmt.Sprintf("%d", count),
		},
	}
}

// NewNotFound creates an Error for a withinPara search without matches.
func NewNotFound(loc, find string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("search text %q not found", find),
		Loc:     loc,
		Details: map[string]string{"find": find},
	}
}

// NewStaleDocument creates an Error for a fingerprint mismatch.
func NewStaleDocument(expected, actual string) *Error {
	return &Error{
		Code:    ErrCodeStaleDocument,
		Message: "document changed since the batch was assembled",
		Details: map[string]string{
			"expected": expected,
			"actual":   actual,
		},
	}
}

// NewHostUnavailable creates an Error wrapping a host transport failure.
func NewHostUnavailable(err error) *Error {
	return &Error{
		Code:    ErrCodeHostUnavailable,
		Message: fmt.Sprintf("host document unavailable: %v", err),
		Err:     err,
	}
}

// NewInvalidAction creates an Error for a payload that failed validation.
func NewInvalidAction(msg string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidAction,
		Message: msg,
		Err:     err,
	}
}

// NewUnsupported creates an Error for an operation that cannot apply to a target.
func NewUnsupported(loc, msg string) *Error {
	return &Error{
		Code:    ErrCodeUnsupported,
		Message: msg,
		Loc:     loc,
	}
}
