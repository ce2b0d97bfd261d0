package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// CatalogSpec describes one soft-deletable table to a CatalogStore.
// Columns are the writable columns in the order Values returns them;
// SelectCols must start with id and be readable by Scan.  Dependents are
// COUNT(*) queries taking the row id; any non-zero count blocks deletion.
type CatalogSpec[T model.SoftDeletable] struct {
	Table      string
	Columns    []string
	SelectCols string
	OrderBy    string
	Scan       func(rowScanner, *T) error
	Values     func(*T) []any
	Dependents []string
}

// CatalogStore owns the CRUD and soft-delete behaviour shared by every
// catalog table (packages, themes, decor, food options, extras, adjustment
// types, categories and raw materials).  Reads by id ignore the activo
// flag, listings show active rows only unless asked otherwise, and delete
// flips activo after checking dependents.
type CatalogStore[T model.SoftDeletable] struct {
	db   *sql.DB
	spec CatalogSpec[T]
}

// NewCatalogStore binds a spec to a database handle.
func NewCatalogStore[T model.SoftDeletable](db *sql.DB, spec CatalogSpec[T]) *CatalogStore[T] {
	if spec.OrderBy == "" {
		spec.OrderBy = "nombre"
	}
	return &CatalogStore[T]{db: db, spec: spec}
}

// DB exposes the underlying handle so callers can open transactions.
func (s *CatalogStore[T]) DB() *sql.DB { return s.db }

// Table returns the table name, used in log lines.
func (s *CatalogStore[T]) Table() string { return s.spec.Table }

// List returns active rows, or every row when includeInactive is set.
func (s *CatalogStore[T]) List(ctx context.Context, includeInactive bool) ([]T, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", s.spec.SelectCols, s.spec.Table)
	if !includeInactive {
		q += " WHERE activo = 1"
	}
	q += " ORDER BY " + s.spec.OrderBy
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var v T
		if err := s.spec.Scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get loads a row by id regardless of its activo flag.
func (s *CatalogStore[T]) Get(ctx context.Context, id uint64) (T, error) {
	return s.GetTx(ctx, s.db, id)
}

// GetTx is Get on a caller-supplied handle.
func (s *CatalogStore[T]) GetTx(ctx context.Context, q DBTX, id uint64) (T, error) {
	var v T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.spec.SelectCols, s.spec.Table)
	if err := s.spec.Scan(q.QueryRowContext(ctx, query, id), &v); err != nil {
		return v, translate(err)
	}
	return v, nil
}

// GetForUpdateTx loads a row and locks it until tx ends.
func (s *CatalogStore[T]) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (T, error) {
	var v T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? FOR UPDATE", s.spec.SelectCols, s.spec.Table)
	if err := s.spec.Scan(tx.QueryRowContext(ctx, query, id), &v); err != nil {
		return v, translate(err)
	}
	return v, nil
}

// GetActiveTx loads a row that must still be active.  Soft-deleted rows
// are reported as ErrNotFound so they cannot be newly referenced.
func (s *CatalogStore[T]) GetActiveTx(ctx context.Context, q DBTX, id uint64) (T, error) {
	v, err := s.GetTx(ctx, q, id)
	if err != nil {
		return v, err
	}
	if !v.IsActive() {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

// Create inserts a row and returns it as stored, with defaults filled in.
func (s *CatalogStore[T]) Create(ctx context.Context, v *T) (T, error) {
	return s.CreateTx(ctx, s.db, v)
}

// CreateTx is Create on a caller-supplied handle.
func (s *CatalogStore[T]) CreateTx(ctx context.Context, q DBTX, v *T) (T, error) {
	var zero T
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(s.spec.Columns)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.spec.Table, strings.Join(s.spec.Columns, ", "), placeholders)
	res, err := q.ExecContext(ctx, query, s.spec.Values(v)...)
	if err != nil {
		return zero, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, err
	}
	return s.GetTx(ctx, q, uint64(id))
}

// Update overwrites the writable columns of an existing row.
func (s *CatalogStore[T]) Update(ctx context.Context, id uint64, v *T) (T, error) {
	return s.UpdateTx(ctx, s.db, id, v)
}

// UpdateTx is Update on a caller-supplied handle.
func (s *CatalogStore[T]) UpdateTx(ctx context.Context, q DBTX, id uint64, v *T) (T, error) {
	var zero T
	if err := s.mustExist(ctx, q, id); err != nil {
		return zero, err
	}
	sets := make([]string, len(s.spec.Columns))
	for i, c := range s.spec.Columns {
		sets[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.spec.Table, strings.Join(sets, ", "))
	args := append(s.spec.Values(v), id)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return zero, translate(err)
	}
	return s.GetTx(ctx, q, id)
}

// SoftDelete marks the row inactive.  It returns ErrNotFound for unknown
// ids and ErrConflict when a dependent query finds live references.
// Deleting an already inactive row succeeds.
func (s *CatalogStore[T]) SoftDelete(ctx context.Context, id uint64) error {
	if err := s.mustExist(ctx, s.db, id); err != nil {
		return err
	}
	for _, dep := range s.spec.Dependents {
		var n int
		if err := s.db.QueryRowContext(ctx, dep, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
	}
	return setActive(ctx, s.db, s.spec.Table, id, false)
}

// Restore re-activates a soft-deleted row.
func (s *CatalogStore[T]) Restore(ctx context.Context, id uint64) (T, error) {
	var zero T
	if err := s.mustExist(ctx, s.db, id); err != nil {
		return zero, err
	}
	if err := setActive(ctx, s.db, s.spec.Table, id, true); err != nil {
		return zero, err
	}
	return s.Get(ctx, id)
}

func (s *CatalogStore[T]) mustExist(ctx context.Context, q DBTX, id uint64) error {
	return rowExists(ctx, q, s.spec.Table, id)
}

// rowExists returns ErrNotFound when no row with the id exists.
func rowExists(ctx context.Context, q DBTX, table string, id uint64) error {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// setActive is the single place the activo flag is written.
func setActive(ctx context.Context, q DBTX, table string, id uint64, active bool) error {
	_, err := q.ExecContext(ctx, "UPDATE "+table+" SET activo = ? WHERE id = ?", active, id)
	return err
}
