package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var packageCols = []string{"id", "nombre", "descripcion", "precio", "capacidad", "activo", "fecha_creacion", "fecha_actualizacion"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCatalogSoftDeleteUnknownID(t *testing.T) {
	db, mock := newMock(t)
	store := NewPackageStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM paquetes WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

	err := store.SoftDelete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogSoftDeleteBlockedByLiveReservation(t *testing.T) {
	db, mock := newMock(t)
	store := NewPackageStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM paquetes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservas WHERE id_paquete = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	err := store.SoftDelete(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogSoftDeleteKeepsRowReadable(t *testing.T) {
	db, mock := newMock(t)
	store := NewPackageStore(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM paquetes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservas WHERE id_paquete = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE paquetes SET activo = ? WHERE id = ?")).
		WithArgs(false, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM paquetes WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(3, "Basico", nil, "1500.00", 40, false, now, now))

	ctx := context.Background()
	require.NoError(t, store.SoftDelete(ctx, 3))

	p, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Basico", p.Nombre)
	assert.False(t, p.IsActive())
	assert.Equal(t, "1500", p.Precio.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogGetActiveRejectsRetiredRow(t *testing.T) {
	db, mock := newMock(t)
	store := NewPackageStore(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM paquetes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(5, "Plus", nil, "2500.00", 60, false, now, now))

	_, err := store.GetActiveTx(context.Background(), db, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogListHidesInactiveByDefault(t *testing.T) {
	db, mock := newMock(t)
	store := NewPackageStore(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM paquetes WHERE activo = 1 ORDER BY nombre")).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(1, "Basico", nil, "1500.00", 40, true, now, now))
	mock.ExpectQuery(`FROM paquetes ORDER BY nombre`).
		WillReturnRows(sqlmock.NewRows(packageCols).
			AddRow(1, "Basico", nil, "1500.00", 40, true, now, now).
			AddRow(2, "Viejo", nil, "900.00", 20, false, now, now))

	ctx := context.Background()
	active, err := store.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := store.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), ErrDuplicate)
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1451}), ErrConflict)
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1452}), ErrConflict)
}

func TestPaginate(t *testing.T) {
	q, args := paginate("SELECT 1", nil, 0, 10)
	assert.Equal(t, "SELECT 1", q)
	assert.Empty(t, args)

	q, args = paginate("SELECT 1", []any{"x"}, 1000, -4)
	assert.Equal(t, "SELECT 1 LIMIT ? OFFSET ?", q)
	assert.Equal(t, []any{"x", 500, 0}, args)
}
