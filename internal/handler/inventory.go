package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// InventoryHandler serves lots, movements and alerts under
// /api/inventario.  Raw materials use the catalog handler.
type InventoryHandler struct {
	Inventory *service.Inventory
}

func NewInventoryHandler(inv *service.Inventory) *InventoryHandler {
	return &InventoryHandler{Inventory: inv}
}

type lotReq struct {
	IDMateriaPrima uint64          `json:"id_materia_prima" validate:"required"`
	CodigoLote     string          `json:"codigo_lote" validate:"required,max=50"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	FechaCaducidad *string         `json:"fecha_caducidad" validate:"omitempty,fecha"`
}

type movementReq struct {
	IDMateriaPrima uint64          `json:"id_materia_prima" validate:"required"`
	IDLote         *uint64         `json:"id_lote"`
	Tipo           string          `json:"tipo" validate:"required,oneof=entrada salida ajuste"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	IDTipoAjuste   *uint64         `json:"id_tipo_ajuste"`
	Descripcion    *string         `json:"descripcion" validate:"omitempty,max=255"`
}

type alertReq struct {
	IDMateriaPrima        uint64  `json:"id_materia_prima" validate:"required"`
	IDLote                *uint64 `json:"id_lote"`
	Tipo                  string  `json:"tipo" validate:"required"`
	Mensaje               string  `json:"mensaje" validate:"required,max=255"`
	IDUsuarioDestinatario *uint64 `json:"id_usuario_destinatario"`
}

type markReadReq struct {
	IDs []uint64 `json:"ids"`
}

// ----- lots -----

func (h *InventoryHandler) ListLots(c echo.Context) error {
	mat, err := optUint(c, "id_materia_prima")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Inventory.ListLots(ctx, mat, includeInactive(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *InventoryHandler) GetLot(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	lot, err := h.Inventory.GetLot(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// CreateLot receives a batch; its quantity enters stock as an entrada.
func (h *InventoryHandler) CreateLot(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req lotReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	lot, err := h.Inventory.CreateLot(ctx, a, model.Lot{
		IDMateriaPrima: req.IDMateriaPrima,
		CodigoLote:     req.CodigoLote,
		Cantidad:       req.Cantidad,
		FechaCaducidad: req.FechaCaducidad,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, lot)
}

func (h *InventoryHandler) DeleteLot(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Inventory.DeleteLot(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- movements -----

func (h *InventoryHandler) ListMovements(c echo.Context) error {
	mat, err := optUint(c, "id_materia_prima")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := page(c)
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Inventory.ListMovements(ctx, mat, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateMovement applies the stock change atomically and answers with the
// movement and the material's new stock.
func (h *InventoryHandler) CreateMovement(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req movementReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	mov, mat, err := h.Inventory.RecordMovement(ctx, a, service.MovementInput{
		IDMateriaPrima: req.IDMateriaPrima,
		IDLote:         req.IDLote,
		Tipo:           req.Tipo,
		Cantidad:       req.Cantidad,
		IDTipoAjuste:   req.IDTipoAjuste,
		Descripcion:    req.Descripcion,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"movimiento": mov, "materia_prima": mat})
}

// ----- alerts -----

// ListAlerts returns the caller's alerts; admins may pass id_usuario.
func (h *InventoryHandler) ListAlerts(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	uid, err := optUint(c, "id_usuario")
	if err != nil {
		return respondError(c, err)
	}
	leida, err := optBool(c, "leida")
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := page(c)
	f := model.AlertFilter{
		Tipo:   c.QueryParam("tipo"),
		Desde:  c.QueryParam("desde"),
		Hasta:  c.QueryParam("hasta"),
		Leida:  leida,
		Limit:  limit,
		Offset: offset,
	}
	if uid != nil {
		f.IDUsuario = *uid
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Inventory.ListAlerts(ctx, a, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// RaiseAlert stores a manual alert (admin).
func (h *InventoryHandler) RaiseAlert(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req alertReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	alert, err := h.Inventory.RaiseAlert(ctx, a, service.AlertInput{
		IDMateriaPrima:        req.IDMateriaPrima,
		IDLote:                req.IDLote,
		Tipo:                  req.Tipo,
		Mensaje:               req.Mensaje,
		IDUsuarioDestinatario: req.IDUsuarioDestinatario,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, alert)
}

// MarkRead marks the given alerts, or all of the caller's, as read.
func (h *InventoryHandler) MarkRead(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req markReadReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, &ValidationError{Campos: map[string]string{"body": "JSON inválido"}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	n, err := h.Inventory.MarkAlertsRead(ctx, a, req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"actualizadas": n})
}

func (h *InventoryHandler) AlertSummary(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Inventory.AlertSummary(ctx, a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
