package engine

import (
	"fmt"
	"strconv"

	"github.com/roach88/redline/internal/ir"
)

// checkQuota rejects a batch that selects more than limit actions.
//
// An agent that emits hundreds of edits has almost certainly misread the
// document; the batch is refused whole rather than applied in part. The
// limit is checked before the fingerprint, so nothing touches the host.
func checkQuota(actions, limit int) error {
	if limit <= 0 || actions <= limit {
		return nil
	}
	return &ir.Error{
		Code:    ir.ErrCodeInvalidAction,
		Message: fmt.Sprintf("batch exceeds max actions quota: %d actions > %d limit", actions, limit),
		Details: map[string]string{
			"actions":     strconv.Itoa(actions),
			"max_actions": strconv.Itoa(limit),
		},
	}
}

// IsQuotaError returns true if err is a batch-size quota rejection.
func IsQuotaError(err error) bool {
	if ir.CodeOf(err) != ir.ErrCodeInvalidAction {
		return false
	}
	e, ok := asIRError(err)
	return ok && e.Details["max_actions"] != ""
}
