// Package queue defines the domain events exchanged over RabbitMQ, the
// publisher used by the workflows and the background consumer that logs
// and mails them.
package queue

// Queue names.  Each event kind has its own durable queue.
const (
	QueueReservationCreated   = "reserva.creada"
	QueueReservationConfirmed = "reserva.confirmada"
	QueueInventoryAlert       = "inventario.alerta"
)

// ReservationEvent is published when a reservation is created (direct
// booking or quotation conversion) or confirmed through payment.  It
// carries enough to log and notify without querying the database.
type ReservationEvent struct {
	IDReserva         uint64 `json:"id_reserva"`
	IDUsuario         uint64 `json:"id_usuario"`
	CodigoSeguimiento string `json:"codigo_seguimiento"`
	FechaReserva      string `json:"fecha_reserva"`
	HoraInicio        string `json:"hora_inicio"`
	HoraFin           string `json:"hora_fin"`
	NombreFestejado   string `json:"nombre_festejado"`
	Total             string `json:"total"`
	Estado            string `json:"estado"`
	Origen            string `json:"origen"` // reserva, cotizacion or pago
	OcurridoEn        string `json:"ocurrido_en"`
}

// AlertEvent is published for every inventory alert created.
type AlertEvent struct {
	IDAlerta              uint64 `json:"id_alerta"`
	Tipo                  string `json:"tipo"`
	Mensaje               string `json:"mensaje"`
	IDMateriaPrima        uint64 `json:"id_materia_prima"`
	IDUsuarioDestinatario uint64 `json:"id_usuario_destinatario"`
	OcurridoEn            string `json:"ocurrido_en"`
}
