package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payment states.
const (
	PaymentPending   = "pendiente"
	PaymentCompleted = "completado"
	PaymentCancelled = "cancelado"
)

// Canonical payment methods.
const (
	MethodCard     = "tarjeta"
	MethodTransfer = "transferencia"
	MethodCash     = "efectivo"
	MethodPayPal   = "paypal"
)

// Pre-reservation states.
const (
	PreReservationAwaitingPayment = "pendiente_pago"
	PreReservationFinalized       = "finalizada"
	PreReservationExpired         = "expirada"
	PreReservationCancelled       = "cancelada"
)

// Payment records one charge attempt.  It references the pre-reservation
// that produced it and, once completed, the reservation it paid for.
type Payment struct {
	ID                uint64          `json:"id"`
	IDUsuario         uint64          `json:"id_usuario"`
	IDReserva         *uint64         `json:"id_reserva,omitempty"`
	IDPreReserva      *string         `json:"id_pre_reserva,omitempty"`
	MetodoPago        string          `json:"metodo_pago"`
	Monto             decimal.Decimal `json:"monto"`
	Moneda            string          `json:"moneda"`
	Estado            string          `json:"estado"`
	ReferenciaExterna *string         `json:"referencia_externa,omitempty"`
	DatosConfirmacion json.RawMessage `json:"datos_confirmacion,omitempty"`
	CreatedAt         time.Time       `json:"fecha_creacion"`
	UpdatedAt         time.Time       `json:"fecha_actualizacion"`
}

// PreReservation holds a slot while its payment is pending.  Datos keeps
// the full booking request so the reservation can be built on confirmation.
type PreReservation struct {
	ID                string          `json:"id"`
	IDUsuario         uint64          `json:"id_usuario"`
	CodigoSeguimiento string          `json:"codigo_seguimiento"`
	FechaReserva      string          `json:"fecha_reserva"`
	HoraInicio        string          `json:"hora_inicio"`
	HoraFin           string          `json:"hora_fin"`
	Datos             json.RawMessage `json:"datos"`
	Total             decimal.Decimal `json:"total"`
	Estado            string          `json:"estado"`
	ExpiraEn          time.Time       `json:"expira_en"`
	IDReserva         *uint64         `json:"id_reserva,omitempty"`
	CreatedAt         time.Time       `json:"fecha_creacion"`
}

// BookingRequest is the reservation payload stored in PreReservation.Datos.
type BookingRequest struct {
	EventDetails
	Extras []ExtraQuantity `json:"extras,omitempty"`
}

// ExtraQuantity selects an extra and how many units of it.
type ExtraQuantity struct {
	IDExtra  uint64 `json:"id_extra" validate:"required"`
	Cantidad int    `json:"cantidad" validate:"required,min=1,max=500"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	IDUsuario *uint64
	Estado    string
	Metodo    string
	Limit     int
	Offset    int
}
