// Package testutil holds deterministic helpers shared by tests and the
// scenario harness.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/redline/internal/memdoc"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Document parses a YAML fixture into an in-memory document.
//
//	doc := testutil.Document(t, `
//	blocks:
//	  - p: Intro
//	  - table: [[a, b]]
//	`)
func Document(t testing.TB, fixture string) *memdoc.Document {
	t.Helper()
	doc, err := memdoc.Parse([]byte(fixture))
	require.NoError(t, err)
	return doc
}
