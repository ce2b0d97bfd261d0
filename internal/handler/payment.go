package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/payment"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// PaymentHandler serves the pay-first flow under /api/reservas and
// /api/pagos.
type PaymentHandler struct {
	Payments *service.Payments
}

func NewPaymentHandler(p *service.Payments) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

type initiateReq struct {
	bookingReq
	MetodoPago        string `json:"metodo_pago" validate:"required,metodo_pago"`
	CodigoSeguimiento string `json:"codigo_seguimiento" validate:"omitempty,max=32"`
}

type confirmReq struct {
	IDPago            uint64          `json:"id_pago" validate:"required"`
	DatosConfirmacion json.RawMessage `json:"datos_confirmacion"`
}

// Initiate holds the slot and opens a pending payment.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req initiateReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	out, err := h.Payments.Initiate(ctx, a, service.InitiateRequest{
		BookingRequest:    req.toModel(),
		MetodoPago:        req.MetodoPago,
		CodigoSeguimiento: strings.TrimSpace(req.CodigoSeguimiento),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Confirm settles a verified payment into a confirmada reservation.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req confirmReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	out, err := h.Payments.Confirm(ctx, a, service.ConfirmRequest{IDPago: req.IDPago, DatosConfirmacion: req.DatosConfirmacion})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PreReservation lets a client resume an in-flight payment.
func (h *PaymentHandler) PreReservation(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	out, err := h.Payments.PreReservation(ctx, a, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) Cancel(c echo.Context) error {
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
	p, err := h.Payments.Cancel(ctx, a, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// List is the admin listing with estado/metodo/id_usuario filters.
func (h *PaymentHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// Mine lists the caller's own payments.
func (h *PaymentHandler) Mine(c echo.Context) error {
	return h.list(c, true)
}

func (h *PaymentHandler) list(c echo.Context, own bool) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	uid, err := optUint(c, "id_usuario")
	if err != nil {
		return respondError(c, err)
	}
	if own {
		uid = &a.ID
	}
	metodo := c.QueryParam("metodo")
	if metodo != "" {
		m, ok := payment.NormalizeMethod(metodo)
		if !ok {
			return respondError(c, &ValidationError{Campos: map[string]string{"metodo": "método de pago no reconocido"}})
		}
		metodo = m
	}
	limit, offset := page(c)
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Payments.List(ctx, a, model.PaymentFilter{
		IDUsuario: uid,
		Estado:    c.QueryParam("estado"),
		Metodo:    metodo,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
