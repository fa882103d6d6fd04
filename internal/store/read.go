package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/redline/internal/ir"
)

const batchColumns = `id, batch_hash, fingerprint, status, error, seq`

// ReadBatches returns every recorded batch with its outcomes, ordered by
// seq ascending. A limit above zero keeps only the most recent batches.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ReadBatches(ctx context.Context, limit int) ([]ir.BatchRecord, error) {
	query := `SELECT ` + batchColumns + ` FROM batches ORDER BY seq ASC`
	var args []any
	if limit > 0 {
		query = `SELECT ` + batchColumns + ` FROM (
			SELECT * FROM batches ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = append(args, limit)
	}
	return s.queryBatches(ctx, query, args...)
}

// ReadBatchesByHash returns every run of the same action list, ordered by
// seq ascending.
func (s *Store) ReadBatchesByHash(ctx context.Context, batchHash string) ([]ir.BatchRecord, error) {
	return s.queryBatches(ctx, `
		SELECT `+batchColumns+`
		FROM batches
		WHERE batch_hash = ?
		ORDER BY seq ASC
	`, batchHash)
}

// ReadBatch retrieves a single batch with its outcomes by run id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadBatch(ctx context.Context, id string) (ir.BatchRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	rec, err := scanBatch(row)
	if err != nil {
		return ir.BatchRecord{}, err
	}
	rec.Outcomes, err = s.readOutcomes(ctx, rec.ID)
	if err != nil {
		return ir.BatchRecord{}, err
	}
	return rec, nil
}

func (s *Store) queryBatches(ctx context.Context, query string, args ...any) ([]ir.BatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	batches := []ir.BatchRecord{}
	for rows.Next() {
		rec, err := scanBatch(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		batches = append(batches, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	// Close before the outcome queries: the pool holds a single connection.
	rows.Close()

	for i := range batches {
		batches[i].Outcomes, err = s.readOutcomes(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return batches, nil
}

// readOutcomes returns a batch's outcomes in action index order.
func (s *Store) readOutcomes(ctx context.Context, batchID string) ([]ir.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action_index, exec_order, kind, loc, status, error_code, error
		FROM outcomes
		WHERE batch_id = ?
		ORDER BY action_index ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []ir.Outcome{}
	for rows.Next() {
		var o ir.Outcome
		var kind, status, code string
		if err := rows.Scan(&o.Index, &o.ExecOrder, &kind, &o.Loc, &status, &code, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = ir.Kind(kind)
		o.Status = ir.OutcomeStatus(status)
		o.ErrorCode = ir.ErrorCode(code)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (ir.BatchRecord, error) {
	var rec ir.BatchRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.BatchHash, &rec.Fingerprint, &status, &rec.Error, &rec.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.BatchRecord{}, err
		}
		return ir.BatchRecord{}, fmt.Errorf("scan batch: %w", err)
	}
	rec.Status = ir.BatchStatus(status)
	return rec, nil
}
