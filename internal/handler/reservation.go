package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// ReservationHandler serves /api/reservas.
type ReservationHandler struct {
	Reservations *service.Reservations
	Availability *service.Availability
}

func NewReservationHandler(r *service.Reservations, a *service.Availability) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Availability: a}
}

type statusReq struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente confirmada cancelada"`
}

// List returns the caller's reservations, or everyone's for admins with
// optional fecha/desde/hasta/estado/id_usuario filters.
func (h *ReservationHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	uid, err := optUint(c, "id_usuario")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := page(c)
	f := model.ReservationFilter{
		IDUsuario: uid,
		Fecha:     c.QueryParam("fecha"),
		Desde:     c.QueryParam("desde"),
		Hasta:     c.QueryParam("hasta"),
		Estado:    c.QueryParam("estado"),
		Limit:     limit,
		Offset:    offset,
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Reservations.List(ctx, a, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *ReservationHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Reservations.Get(ctx, a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Create books directly; the reservation starts pendiente.
func (h *ReservationHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req bookingReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Reservations.Create(ctx, a, req.toModel())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req bookingReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Reservations.Update(ctx, a, id, req.toModel())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// SetStatus is admin only.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Reservations.SetStatus(ctx, id, req.Estado)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Reservations.Delete(ctx, a, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckAvailability answers ?fecha=&horario= or
// ?fecha=&hora_inicio=&hora_fin=. With only fecha it returns the state of
// both fixed slots.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	q := service.AvailabilityQuery{
		Fecha:      c.QueryParam("fecha"),
		Horario:    c.QueryParam("horario"),
		HoraInicio: c.QueryParam("hora_inicio"),
		HoraFin:    c.QueryParam("hora_fin"),
	}
	if q.Fecha == "" {
		return respondError(c, &ValidationError{Campos: map[string]string{"fecha": "es obligatorio"}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Availability.Check(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// BlockedDates lists dates in [desde, hasta] with both slots taken.
func (h *ReservationHandler) BlockedDates(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	dates, err := h.Availability.BlockedDates(ctx, c.QueryParam("desde"), c.QueryParam("hasta"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fechas": dates})
}
