// Package engine applies action batches to a live document.
//
// ARCHITECTURE:
//
// One Execute call is one batch. The batch moves through fixed phases:
//
//  1. Guard: the batch-size quota and, when the caller supplied one, the
//     fingerprint check. A failing guard applies nothing.
//  2. Plan: schedule.Plan orders the selected actions.
//  3. Apply: inside a change-tracking scope, each action is resolved against
//     the live document and dispatched to the host. A failing action is
//     recorded against its index and the loop moves on.
//  4. Record: per-action outcomes go to the Recorder and the metrics.
//
// Execution is strictly sequential. Action N's structural effect decides
// whether action N+1's indices are still valid, so there is nothing to
// parallelise; the scheduler exists to make that sequence safe.
//
// Once the Apply phase starts it runs to completion: cancellation of the
// caller's context is not observed mid-batch, and tracking mode is always
// restored on the way out. A host that becomes unreachable is the only
// thing that stops the loop early; remaining actions are reported as
// skipped.
package engine
