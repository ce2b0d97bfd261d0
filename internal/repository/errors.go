// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish failure scenarios and map them to
// HTTP status codes without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent records or conflicting state.  Handlers translate
// it into 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a row does not exist.  Lookups by id ignore
// the activo flag; lookups that require an active row also return it for
// soft-deleted rows.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key (name, code) already exists.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned on signup or user creation with a taken email.
var ErrEmailExists = errors.New("email already exists")

// DBTX is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a caller-owned transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// mysql error numbers
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return mysqlErrNumber(err) == errDupEntry || strings.Contains(err.Error(), "1062")
}

// translate maps driver errors to the sentinels above.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	switch mysqlErrNumber(err) {
	case errDupEntry:
		return ErrDuplicate
	case errRowIsReferenced, errNoReferencedRow:
		return ErrConflict
	}
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}
