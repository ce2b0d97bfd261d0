package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation states.  Only pendiente and confirmada occupy the calendar.
const (
	ReservationPending   = "pendiente"
	ReservationConfirmed = "confirmada"
	ReservationCancelled = "cancelada"
)

// EventDetails holds the descriptive fields shared by reservations,
// quotations and pre-reservations.  Fecha is YYYY-MM-DD and the hours are
// HH:MM in venue local time.
type EventDetails struct {
	IDPaquete        uint64  `json:"id_paquete"`
	IDTematica       *uint64 `json:"id_tematica,omitempty"`
	IDMampara        *uint64 `json:"id_mampara,omitempty"`
	IDOpcionAlimento *uint64 `json:"id_opcion_alimento,omitempty"`
	FechaReserva     string  `json:"fecha_reserva"`
	HoraInicio       string  `json:"hora_inicio"`
	HoraFin          string  `json:"hora_fin"`
	Horario          string  `json:"horario,omitempty"`
	NombreFestejado  string  `json:"nombre_festejado"`
	EdadFestejado    int     `json:"edad_festejado"`
	SexoFestejado    string  `json:"sexo_festejado,omitempty"`
	NumeroAdultos    int     `json:"numero_adultos"`
	NumeroNinos      int     `json:"numero_ninos"`
	Comentarios      *string `json:"comentarios,omitempty"`
}

// Guests returns the number of people the food option is served to.
func (d EventDetails) Guests() int { return d.NumeroAdultos + d.NumeroNinos }

// LineExtra is an extra attached to a reservation or quotation with the unit
// price frozen at booking time.
type LineExtra struct {
	IDExtra        uint64          `json:"id_extra"`
	Nombre         string          `json:"nombre,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

// Reservation is a booked party.  It is never hard-deleted; Activo false
// hides it from listings and the availability check.
type Reservation struct {
	ID                uint64          `json:"id"`
	IDUsuario         uint64          `json:"id_usuario"`
	CodigoSeguimiento string          `json:"codigo_seguimiento"`
	EventDetails
	Total             decimal.Decimal `json:"total"`
	Estado            string          `json:"estado"`
	Active
	Extras            []LineExtra     `json:"extras"`
	CreatedAt         time.Time       `json:"fecha_creacion"`
	UpdatedAt         time.Time       `json:"fecha_actualizacion"`
}

// Occupies reports whether the reservation blocks its time range.
func (r Reservation) Occupies() bool {
	return r.Activo && (r.Estado == ReservationPending || r.Estado == ReservationConfirmed)
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	IDUsuario *uint64
	Fecha     string
	Desde     string
	Hasta     string
	Estado    string
	Limit     int
	Offset    int
}
