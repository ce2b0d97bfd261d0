package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Finance entry kinds, shared by categories.
const (
	FinanceIncome  = "ingreso"
	FinanceExpense = "gasto"
)

// Category classifies finance entries.
type Category struct {
	ID        uint64    `json:"id"`
	Nombre    string    `json:"nombre"`
	Tipo      string    `json:"tipo"`
	Active
	CreatedAt time.Time `json:"fecha_creacion"`
	UpdatedAt time.Time `json:"fecha_actualizacion"`
}

// FinanceEntry is an income or expense line.
type FinanceEntry struct {
	ID          uint64          `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion *string         `json:"descripcion,omitempty"`
	IDCategoria *uint64         `json:"id_categoria,omitempty"`
	IDReserva   *uint64         `json:"id_reserva,omitempty"`
	IDPago      *uint64         `json:"id_pago,omitempty"`
	Fecha       string          `json:"fecha"`
	IDUsuario   *uint64         `json:"id_usuario,omitempty"`
	CreatedAt   time.Time       `json:"fecha_creacion"`
}

// FinanceSummary aggregates one month.
type FinanceSummary struct {
	Mes      string          `json:"mes"`
	Ingresos decimal.Decimal `json:"ingresos"`
	Gastos   decimal.Decimal `json:"gastos"`
	Balance  decimal.Decimal `json:"balance"`
}
