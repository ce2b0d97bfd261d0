package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkConvertedTwiceConflicts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQuotationRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cotizaciones SET estado = 'convertida'")).
		WithArgs(uint64(70), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = repo.MarkConvertedTx(ctx, tx, 4, 70)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireDueUsesUTC(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQuotationRepo(db)
	loc := time.FixedZone("CST", -6*3600)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, loc)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cotizaciones SET estado = 'expirada'")).
		WithArgs(now.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestBusyOnDateIncludesHolds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery("UNION ALL").
		WithArgs("2026-05-02", uint64(0), "2026-05-02", "").
		WillReturnRows(sqlmock.NewRows([]string{"fuente", "id", "hi", "hf"}).
			AddRow("reserva", "12", "11:00", "15:00").
			AddRow("pre_reserva", "0b7f", "17:00", "20:00"))

	busy, err := repo.BusyOnDateTx(context.Background(), db, "2026-05-02", Exclusions{})
	require.NoError(t, err)
	require.Len(t, busy, 2)
	assert.Equal(t, "pre_reserva", busy[1].Fuente)
	assert.Equal(t, "20:00", busy[1].HoraFin)
}

func TestAlertMarkReadScopesToRecipient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAlertRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id_usuario_destinatario = ? AND leida = 0 AND id IN (?,?)")).
		WithArgs(uint64(8), uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id_usuario_destinatario = ? AND leida = 0")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.MarkRead(ctx, 8, []uint64{1, 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.MarkRead(ctx, 8, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertSummary(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAlertRepo(db)

	mock.ExpectQuery("GROUP BY tipo").
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"tipo", "total", "no_leidas"}).
			AddRow("caducidad", 2, 1).
			AddRow("stock_bajo", 4, 0))

	got, err := repo.Summary(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "stock_bajo", got[1].Tipo)
	assert.Equal(t, 4, got[1].Total)
	assert.Equal(t, 1, got[0].NoLeida)
}

func TestFinanceMonthlySummaryBalance(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFinanceRepo(db)

	mock.ExpectQuery("GROUP BY mes").
		WithArgs("ingreso").
		WillReturnRows(sqlmock.NewRows([]string{"mes", "ingresos", "gastos"}).
			AddRow("2026-04", "5000.00", "1200.50"))

	got, err := repo.MonthlySummary(context.Background(), FinanceFilter{Tipo: "ingreso"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3799.5", got[0].Balance.String())
}
