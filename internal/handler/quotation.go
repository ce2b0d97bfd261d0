package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// QuotationHandler serves /api/cotizaciones.
type QuotationHandler struct {
	Quotations   *service.Quotations
	Availability *service.Availability
}

func NewQuotationHandler(q *service.Quotations, a *service.Availability) *QuotationHandler {
	return &QuotationHandler{Quotations: q, Availability: a}
}

// Create prices the booking and stores a quotation valid for 48 hours.
func (h *QuotationHandler) Create(c echo.Context) error {
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
	q, err := h.Quotations.Create(ctx, a, req.toModel())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *QuotationHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Quotations.List(ctx, a, c.QueryParam("estado"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *QuotationHandler) Get(c echo.Context) error {
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
	q, err := h.Quotations.Get(ctx, a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuotationHandler) GetByCode(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	q, err := h.Quotations.GetByCode(ctx, a, c.Param("codigo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Convert turns a live quotation into a pendiente reservation, once.
func (h *QuotationHandler) Convert(c echo.Context) error {
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
	res, err := h.Quotations.Convert(ctx, a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// CheckAvailability is the reservation check plus, when id_opcion_alimento
// is given, whether its raw material covers the guests.
func (h *QuotationHandler) CheckAvailability(c echo.Context) error {
	foodID, err := optUint(c, "id_opcion_alimento")
	if err != nil {
		return respondError(c, err)
	}
	adults, err := optCount(c, "numero_adultos")
	if err != nil {
		return respondError(c, err)
	}
	kids, err := optCount(c, "numero_ninos")
	if err != nil {
		return respondError(c, err)
	}
	q := service.AvailabilityQuery{
		Fecha:            c.QueryParam("fecha"),
		Horario:          c.QueryParam("horario"),
		HoraInicio:       c.QueryParam("hora_inicio"),
		HoraFin:          c.QueryParam("hora_fin"),
		IDOpcionAlimento: foodID,
		NumeroAdultos:    adults,
		NumeroNinos:      kids,
		CheckStock:       foodID != nil,
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
