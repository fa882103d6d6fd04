package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/redline/internal/ir"
)

// RecordBatch writes a batch and its outcomes in one transaction and
// returns the seq assigned to it. rec.Seq is ignored.
//
// Recording is idempotent on the run id: writing a batch whose id is
// already present changes nothing and returns the existing seq.
func (s *Store) RecordBatch(ctx context.Context, rec ir.BatchRecord) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("record batch: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record batch: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM batches WHERE id = ?`, rec.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("record batch %s: %w", rec.ID, err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM batches`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record batch %s: next seq: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches
		(id, batch_hash, fingerprint, status, error, action_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.BatchHash,
		rec.Fingerprint,
		string(rec.Status),
		rec.Error,
		len(rec.Outcomes),
		seq,
	)
	if err != nil {
		return 0, fmt.Errorf("record batch %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes
		(batch_id, action_index, exec_order, kind, loc, status, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("record batch %s: prepare outcomes: %w", rec.ID, err)
	}
	defer stmt.Close()

	for _, o := range rec.Outcomes {
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			o.Index,
			o.ExecOrder,
			string(o.Kind),
			o.Loc,
			string(o.Status),
			string(o.ErrorCode),
			o.Error,
		); err != nil {
			return 0, fmt.Errorf("record batch %s: outcome %d: %w", rec.ID, o.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record batch %s: commit: %w", rec.ID, err)
	}
	return seq, nil
}
