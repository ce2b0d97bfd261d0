package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

var categoryCols = []string{"id", "nombre", "tipo", "activo", "fecha_creacion", "fecha_actualizacion"}

func TestFinanceEntryDefaultsToToday(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM categorias WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(2, "Insumos", "gasto", true, now, now))
	f.mock.ExpectExec("INSERT INTO finanzas").
		WithArgs("gasto", sqlmock.AnyArg(), nil, uint64(2), nil, nil, "2026-05-01", uint64(3)).
		WillReturnResult(sqlmock.NewResult(8, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM finanzas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(financeCols).AddRow(8, "gasto", "250.50", nil, 2, nil, nil, "2026-05-01", 3, now))

	e, err := f.finance.Create(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.FinanceEntry{
		Tipo: "gasto", Monto: decimal.RequireFromString("250.50"), IDCategoria: u64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), e.ID)
	assert.Equal(t, "2026-05-01", e.Fecha)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFinanceEntryCategoryMustMatchType(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM categorias WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(2, "Insumos", "gasto", true, now, now))

	_, err := f.finance.Create(context.Background(), Actor{ID: 3, Role: model.RoleAdmin}, model.FinanceEntry{
		Tipo: "ingreso", Monto: decimal.NewFromInt(10), IDCategoria: u64(2),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFinanceEntryRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, time.Now())

	_, err := f.finance.Create(context.Background(), Actor{ID: 3}, model.FinanceEntry{Tipo: "ingreso"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.finance.Create(context.Background(), Actor{ID: 3}, model.FinanceEntry{Tipo: "regalo", Monto: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateCategory(t *testing.T) {
	c := model.Category{Nombre: "  Renta ", Tipo: "gasto"}
	require.NoError(t, ValidateCategory(&c))
	assert.Equal(t, "Renta", c.Nombre)
	assert.ErrorIs(t, ValidateCategory(&model.Category{Nombre: "x", Tipo: "otro"}), ErrInvalidInput)
}
