package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// FinanceHandler serves /api/finanzas (admin).
type FinanceHandler struct {
	Finance *service.Finance
}

func NewFinanceHandler(f *service.Finance) *FinanceHandler {
	return &FinanceHandler{Finance: f}
}

type financeReq struct {
	Tipo        string          `json:"tipo" validate:"required,oneof=ingreso gasto"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion *string         `json:"descripcion" validate:"omitempty,max=255"`
	IDCategoria *uint64         `json:"id_categoria"`
	IDReserva   *uint64         `json:"id_reserva"`
	Fecha       string          `json:"fecha" validate:"omitempty,fecha"`
}

func (h *FinanceHandler) filter(c echo.Context) (repository.FinanceFilter, error) {
	cat, err := optUint(c, "id_categoria")
	if err != nil {
		return repository.FinanceFilter{}, err
	}
	limit, offset := page(c)
	return repository.FinanceFilter{
		Tipo:        c.QueryParam("tipo"),
		IDCategoria: cat,
		Desde:       c.QueryParam("desde"),
		Hasta:       c.QueryParam("hasta"),
		Limit:       limit,
		Offset:      offset,
	}, nil
}

func (h *FinanceHandler) List(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Finance.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *FinanceHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req financeReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	e, err := h.Finance.Create(ctx, a, model.FinanceEntry{
		Tipo:        req.Tipo,
		Monto:       req.Monto,
		Descripcion: req.Descripcion,
		IDCategoria: req.IDCategoria,
		IDReserva:   req.IDReserva,
		Fecha:       req.Fecha,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// Summary totals income and expenses per month.
func (h *FinanceHandler) Summary(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Finance.Summary(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
