package handler

import (
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// bookingReq is the body shared by reservations, quotations and the
// pay-first flow.  Either horario or hora_inicio must be present; the
// workflow reports a missing time range.
type bookingReq struct {
	IDPaquete        uint64                `json:"id_paquete" validate:"required"`
	IDTematica       *uint64               `json:"id_tematica"`
	IDMampara        *uint64               `json:"id_mampara"`
	IDOpcionAlimento *uint64               `json:"id_opcion_alimento"`
	FechaReserva     string                `json:"fecha_reserva" validate:"required,fecha"`
	HoraInicio       string                `json:"hora_inicio" validate:"omitempty,hora"`
	HoraFin          string                `json:"hora_fin" validate:"omitempty,hora"`
	Horario          string                `json:"horario" validate:"omitempty,horario"`
	NombreFestejado  string                `json:"nombre_festejado" validate:"required,max=100"`
	EdadFestejado    int                   `json:"edad_festejado" validate:"min=0,max=120"`
	SexoFestejado    string                `json:"sexo_festejado" validate:"omitempty,max=20"`
	NumeroAdultos    int                   `json:"numero_adultos" validate:"min=0,max=1000"`
	NumeroNinos      int                   `json:"numero_ninos" validate:"min=0,max=1000"`
	Comentarios      *string               `json:"comentarios" validate:"omitempty,max=1000"`
	Extras           []model.ExtraQuantity `json:"extras" validate:"omitempty,max=50,dive"`
}

func (r bookingReq) toModel() model.BookingRequest {
	return model.BookingRequest{
		EventDetails: model.EventDetails{
			IDPaquete:        r.IDPaquete,
			IDTematica:       r.IDTematica,
			IDMampara:        r.IDMampara,
			IDOpcionAlimento: r.IDOpcionAlimento,
			FechaReserva:     strings.TrimSpace(r.FechaReserva),
			HoraInicio:       strings.TrimSpace(r.HoraInicio),
			HoraFin:          strings.TrimSpace(r.HoraFin),
			Horario:          schedule.NormalizeSlot(r.Horario),
			NombreFestejado:  strings.TrimSpace(r.NombreFestejado),
			EdadFestejado:    r.EdadFestejado,
			SexoFestejado:    strings.TrimSpace(r.SexoFestejado),
			NumeroAdultos:    r.NumeroAdultos,
			NumeroNinos:      r.NumeroNinos,
			Comentarios:      r.Comentarios,
		},
		Extras: r.Extras,
	}
}
