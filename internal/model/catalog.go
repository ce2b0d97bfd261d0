package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package (paquete) is the base product of a party.  Its price is the
// starting point of every quotation and reservation total.
type Package struct {
	ID          uint64          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Capacidad   int             `json:"capacidad"`
	Active
	CreatedAt   time.Time       `json:"fecha_creacion"`
	UpdatedAt   time.Time       `json:"fecha_actualizacion"`
}

// Theme (tematica) groups decor and food options.
type Theme struct {
	ID          uint64    `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion *string   `json:"descripcion,omitempty"`
	Active
	CreatedAt   time.Time `json:"fecha_creacion"`
	UpdatedAt   time.Time `json:"fecha_actualizacion"`
}

// Decor (mampara) is a backdrop set, optionally bound to a theme.
type Decor struct {
	ID         uint64          `json:"id"`
	Nombre     string          `json:"nombre"`
	IDTematica *uint64         `json:"id_tematica,omitempty"`
	Precio     decimal.Decimal `json:"precio"`
	Piezas     int             `json:"piezas"`
	Active
	CreatedAt  time.Time       `json:"fecha_creacion"`
	UpdatedAt  time.Time       `json:"fecha_actualizacion"`
}

// FoodOption (opcion de alimento) is priced per adult and per child.  When
// IDMateriaPrima is set, each guest consumes CantidadPorPersona units of
// that raw material.
type FoodOption struct {
	ID                 uint64          `json:"id"`
	Nombre             string          `json:"nombre"`
	IDTematica         *uint64         `json:"id_tematica,omitempty"`
	PrecioAdulto       decimal.Decimal `json:"precio_adulto"`
	PrecioNino         decimal.Decimal `json:"precio_nino"`
	IDMateriaPrima     *uint64         `json:"id_materia_prima,omitempty"`
	CantidadPorPersona decimal.Decimal `json:"cantidad_por_persona"`
	Active
	CreatedAt          time.Time       `json:"fecha_creacion"`
	UpdatedAt          time.Time       `json:"fecha_actualizacion"`
}

// Extra is an add-on charged per unit.
type Extra struct {
	ID          uint64          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Active
	CreatedAt   time.Time       `json:"fecha_creacion"`
	UpdatedAt   time.Time       `json:"fecha_actualizacion"`
}

// AdjustmentType (tipo de ajuste) classifies manual inventory adjustments.
type AdjustmentType struct {
	ID          uint64    `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion *string   `json:"descripcion,omitempty"`
	Active
	CreatedAt   time.Time `json:"fecha_creacion"`
	UpdatedAt   time.Time `json:"fecha_actualizacion"`
}
