package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

var lotCols = []string{"id", "id_materia_prima", "codigo_lote", "cantidad", "fecha_caducidad", "activo", "fecha_creacion"}

func TestCreateMaterialBelowMinimumRaisesOneAlert(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectExec("INSERT INTO materias_primas").WillReturnResult(sqlmock.NewResult(9, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "2", "5", nil, nil, nil, true, now, now))
	f.mock.ExpectExec("INSERT INTO alertas_inventario").
		WithArgs(uint64(9), nil, model.AlertLowStock, sqlmock.AnyArg(), uint64(3), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	m, err := f.inventory.CreateMaterial(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.RawMaterial{
		Nombre: " Harina ", UnidadMedida: "kg", StockActual: decimal.NewFromInt(2), StockMinimo: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.True(t, m.LowStock())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateMaterialAboveMinimumRaisesNothing(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectExec("INSERT INTO materias_primas").WillReturnResult(sqlmock.NewResult(9, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "20", "5", nil, nil, nil, true, now, now))
	f.mock.ExpectCommit()

	_, err := f.inventory.CreateMaterial(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.RawMaterial{
		Nombre: "Harina", UnidadMedida: "kg", StockActual: decimal.NewFromInt(20), StockMinimo: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateMaterialRollsBackWhenAlertFails(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM materias_primas WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	f.mock.ExpectExec("UPDATE materias_primas SET").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "1", "5", nil, nil, 4, true, now, now))
	f.mock.ExpectExec("INSERT INTO alertas_inventario").
		WithArgs(uint64(9), nil, model.AlertLowStock, sqlmock.AnyArg(), uint64(4), now).
		WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	_, err := f.inventory.UpdateMaterial(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, 9, model.RawMaterial{
		Nombre: "Harina", UnidadMedida: "kg", StockActual: decimal.NewFromInt(1), StockMinimo: decimal.NewFromInt(5),
	})
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateMaterialValidation(t *testing.T) {
	f := newFixture(t, time.Now())

	_, err := f.inventory.CreateMaterial(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.RawMaterial{
		Nombre: "Harina", UnidadMedida: "kg", StockActual: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.inventory.CreateMaterial(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.RawMaterial{Nombre: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordMovementRejectsOverdraw(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "3", "1", nil, nil, nil, true, now, now))
	f.mock.ExpectRollback()

	_, _, err := f.inventory.RecordMovement(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, MovementInput{
		IDMateriaPrima: 9, Tipo: model.MovementOut, Cantidad: decimal.RequireFromString("3.5"),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecordMovementOutCrossingMinimumAlertsResponsable(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "6", "5", nil, nil, 4, true, now, now))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE materias_primas SET stock_actual = stock_actual + ?")).
		WithArgs(sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO movimientos_inventario").WillReturnResult(sqlmock.NewResult(70, 1))
	f.mock.ExpectExec("INSERT INTO alertas_inventario").
		WithArgs(uint64(9), nil, model.AlertLowStock, sqlmock.AnyArg(), uint64(4), now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	f.mock.ExpectCommit()

	mv, mat, err := f.inventory.RecordMovement(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, MovementInput{
		IDMateriaPrima: 9, Tipo: model.MovementOut, Cantidad: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "4", mat.StockActual.String())
	assert.Equal(t, model.MovementOut, mv.Tipo)
	assert.Equal(t, uint64(3), mv.IDUsuario)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecordMovementFromLotDrawsDownLot(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	lotID := uint64(15)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Leche", "l", "20", "2", nil, nil, nil, true, now, now))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM lotes WHERE id = ? FOR UPDATE")).
		WithArgs(lotID).
		WillReturnRows(sqlmock.NewRows(lotCols).AddRow(15, 9, "L-15", "12", "2026-06-01", true, now))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE materias_primas SET stock_actual = stock_actual + ?")).
		WithArgs(sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO movimientos_inventario").WillReturnResult(sqlmock.NewResult(72, 1))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE lotes SET cantidad = cantidad + ?")).
		WithArgs("-5", lotID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	mv, mat, err := f.inventory.RecordMovement(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, MovementInput{
		IDMateriaPrima: 9, IDLote: &lotID, Tipo: model.MovementOut, Cantidad: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "15", mat.StockActual.String())
	require.NotNil(t, mv.IDLote)
	assert.Equal(t, lotID, *mv.IDLote)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecordMovementRejectsOverdrawOfLot(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	lotID := uint64(15)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Leche", "l", "20", "2", nil, nil, nil, true, now, now))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM lotes WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(lotCols).AddRow(15, 9, "L-15", "4", "2026-06-01", true, now))
	f.mock.ExpectRollback()

	_, _, err := f.inventory.RecordMovement(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, MovementInput{
		IDMateriaPrima: 9, IDLote: &lotID, Tipo: model.MovementOut, Cantidad: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecordMovementValidatesKind(t *testing.T) {
	f := newFixture(t, time.Now())

	_, _, err := f.inventory.RecordMovement(context.Background(), Actor{ID: 3}, MovementInput{
		IDMateriaPrima: 9, Tipo: "robo", Cantidad: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = f.inventory.RecordMovement(context.Background(), Actor{ID: 3}, MovementInput{
		IDMateriaPrima: 9, Tipo: model.MovementIn, Cantidad: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateLotNearExpiryBooksEntryAndAlert(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	expiry := "2026-05-05"

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Leche", "l", "0", "0", nil, nil, nil, true, now, now))
	f.mock.ExpectExec("INSERT INTO lotes").WillReturnResult(sqlmock.NewResult(15, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM lotes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(lotCols).AddRow(15, 9, "L-15", "12", expiry, true, now))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE materias_primas SET stock_actual")).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO movimientos_inventario").WillReturnResult(sqlmock.NewResult(71, 1))
	f.mock.ExpectExec("INSERT INTO alertas_inventario").
		WithArgs(uint64(9), uint64(15), model.AlertExpiry, sqlmock.AnyArg(), uint64(3), now).
		WillReturnResult(sqlmock.NewResult(3, 1))
	f.mock.ExpectCommit()

	lot, err := f.inventory.CreateLot(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.Lot{
		IDMateriaPrima: 9, CodigoLote: "L-15", Cantidad: decimal.NewFromInt(12), FechaCaducidad: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(15), lot.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSweepSkipsCandidatesWithoutRecipient(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery("FROM lotes l JOIN materias_primas m").
		WithArgs(ExpiryWarningDays).
		WillReturnRows(sqlmock.NewRows([]string{"mid", "lid", "nombre", "codigo", "fecha", "resp"}).
			AddRow(9, 15, "Leche", "L-15", "2026-05-03", 4).
			AddRow(10, 16, "Crema", "L-16", "2026-05-04", nil))
	f.mock.ExpectExec("INSERT INTO alertas_inventario").
		WithArgs(uint64(9), uint64(15), model.AlertExpiry, "El lote L-15 de Leche caduca el 2026-05-03", uint64(4), now).
		WillReturnResult(sqlmock.NewResult(4, 1))

	n, err := f.inventory.SweepExpiringLots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListAlertsForcesClientsToOwnAlerts(t *testing.T) {
	f := newFixture(t, time.Now())

	f.mock.ExpectQuery("FROM alertas_inventario").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := f.inventory.ListAlerts(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, model.AlertFilter{IDUsuario: 3})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
