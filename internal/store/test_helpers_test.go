package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/redline/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBatch creates a batch record with one outcome per loc, all
// applied in index order.
func createTestBatch(id, batchHash string, locs ...string) ir.BatchRecord {
	rec := ir.BatchRecord{
		ID:          id,
		BatchHash:   batchHash,
		Fingerprint: "fp-" + id,
		Status:      ir.BatchApplied,
		Outcomes:    []ir.Outcome{},
	}
	for i, loc := range locs {
		rec.Outcomes = append(rec.Outcomes, ir.Outcome{
			Index:     i,
			ExecOrder: i,
			Kind:      ir.KindDelete,
			Loc:       loc,
			Status:    ir.OutcomeApplied,
		})
	}
	return rec
}
