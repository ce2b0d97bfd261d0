package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation states.  A quotation leaves creada exactly once.
const (
	QuotationCreated   = "creada"
	QuotationConverted = "convertida"
	QuotationExpired   = "expirada"
)

// QuotationTTL is the fixed validity window of a quotation.
const QuotationTTL = 48 * time.Hour

// Quotation is a priced, time-boxed offer that can be turned into a
// reservation once.
type Quotation struct {
	ID              uint64          `json:"id"`
	IDUsuario       uint64          `json:"id_usuario"`
	Codigo          string          `json:"codigo"`
	EventDetails
	Total           decimal.Decimal `json:"total"`
	Estado          string          `json:"estado"`
	IDReserva       *uint64         `json:"id_reserva,omitempty"`
	Extras          []LineExtra     `json:"extras"`
	FechaCreacion   time.Time       `json:"fecha_creacion"`
	FechaExpiracion time.Time       `json:"fecha_expiracion"`
}

// ExpiredAt reports whether the quotation can no longer be converted at t.
func (q Quotation) ExpiredAt(t time.Time) bool {
	return !t.Before(q.FechaExpiracion)
}
