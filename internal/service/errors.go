// Package service holds the booking and back-office workflows that span
// several repositories: availability, pricing, reservations, quotations,
// the pay-first flow, inventory alerting and finance.
package service

import "errors"

// Workflow errors.  Handlers map them with errors.Is; repository sentinels
// (ErrNotFound, ErrConflict, ...) pass through unchanged.
var (
	// ErrInvalidInput marks a request that is well-formed JSON but
	// semantically invalid.  Mapped to 400.
	ErrInvalidInput = errors.New("datos inválidos")

	// ErrInvalidReference is returned when a booking names an unknown or
	// retired catalog item.  Mapped to 400.
	ErrInvalidReference = errors.New("referencia de catálogo inválida o inactiva")

	// ErrSlotUnavailable is returned when the requested range overlaps a
	// live reservation or hold.  Mapped to 409.
	ErrSlotUnavailable = errors.New("el horario solicitado ya está ocupado")

	// ErrQuotationExpired is returned when converting a quotation past its
	// expiry.  Mapped to 409.
	ErrQuotationExpired = errors.New("la cotización ha expirado")

	// ErrInvalidState is returned when a record is not in a state that
	// allows the operation.  Mapped to 409.
	ErrInvalidState = errors.New("estado inválido para la operación")

	// ErrInsufficientStock is returned when a movement would take stock
	// below zero.  Mapped to 409.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrPaymentNotVerified is returned when the processor has not
	// captured the charge being confirmed.  Mapped to 409.
	ErrPaymentNotVerified = errors.New("el pago no ha sido verificado")
)
