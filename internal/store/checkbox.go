package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRowAlreadyAssigned marks a uniqueness conflict on a row assignment:
// the key was taken by another employee between read and insert.
var ErrRowAlreadyAssigned = errors.New("row already assigned")

// AddBaseSelections unions the given row keys into the base selection set.
// Existing tuples are left untouched, so repeated calls are idempotent and
// the set only ever grows.
func (s *PostgresStore) AddBaseSelections(ctx context.Context, orderID int64, pdfType, scope string, rowKeys []string, createdBy *int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin base selection tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, key := range rowKeys {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_base_selections (order_id, pdf_type, scope, row_key, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT ON CONSTRAINT uk_base_order_pdf_scope_row DO NOTHING
		`, orderID, pdfType, scope, key, createdBy)
		if err != nil {
			return 0, fmt.Errorf("insert base selection %s: %w", key, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit base selection tx: %w", err)
	}
	return added, nil
}

// ListBaseSelectionKeys returns the base set in insertion order.
func (s *PostgresStore) ListBaseSelectionKeys(ctx context.Context, orderID int64, pdfType, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_key
		FROM order_base_selections
		WHERE order_id=$1 AND pdf_type=$2 AND scope=$3
		ORDER BY id
	`, orderID, pdfType, scope)
	if err != nil {
		return nil, fmt.Errorf("list base selections: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan base selection: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// AddRowAssignments inserts the given assignments in one transaction. A
// unique violation surfaces as ErrRowAlreadyAssigned with the losing key,
// and rolls back the whole batch.
func (s *PostgresStore) AddRowAssignments(ctx context.Context, assignments []RowAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range assignments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_row_assignments (order_id, pdf_type, scope, row_key, assigned_to_user_id, assigned_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.OrderID, a.PdfType, a.Scope, a.RowKey, a.AssignedToUserID, a.AssignedByUserID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("row %s: %w", a.RowKey, ErrRowAlreadyAssigned)
			}
			return fmt.Errorf("insert assignment %s: %w", a.RowKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment tx: %w", err)
	}
	return nil
}

// ListRowAssignments returns all assignments for the scope in insertion
// order.
func (s *PostgresStore) ListRowAssignments(ctx context.Context, orderID int64, pdfType, scope string) ([]RowAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, pdf_type, scope, row_key, assigned_to_user_id, assigned_by_user_id, assigned_at
		FROM order_row_assignments
		WHERE order_id=$1 AND pdf_type=$2 AND scope=$3
		ORDER BY id
	`, orderID, pdfType, scope)
	if err != nil {
		return nil, fmt.Errorf("list row assignments: %w", err)
	}
	defer rows.Close()

	items := make([]RowAssignment, 0)
	for rows.Next() {
		var a RowAssignment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.PdfType, &a.Scope, &a.RowKey, &a.AssignedToUserID, &a.AssignedByUserID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan row assignment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// ListRowAssignmentKeysForUser returns only the calling employee's own
// assigned keys, in insertion order.
func (s *PostgresStore) ListRowAssignmentKeysForUser(ctx context.Context, orderID int64, pdfType, scope string, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_key
		FROM order_row_assignments
		WHERE order_id=$1 AND pdf_type=$2 AND scope=$3 AND assigned_to_user_id=$4
		ORDER BY id
	`, orderID, pdfType, scope, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan user assignment: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
