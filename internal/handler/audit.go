package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// AuditHandler serves GET /api/auditoria (admin).
type AuditHandler struct {
	Audit *repository.AuditRepo
}

func NewAuditHandler(a *repository.AuditRepo) *AuditHandler {
	return &AuditHandler{Audit: a}
}

func (h *AuditHandler) List(c echo.Context) error {
	uid, err := optUint(c, "id_usuario")
	if err != nil {
		return respondError(c, err)
	}
	f := model.AuditFilter{
		IDUsuario: uid,
		Metodo:    c.QueryParam("metodo"),
		Desde:     c.QueryParam("desde"),
		Hasta:     c.QueryParam("hasta"),
	}
	for name, d := range map[string]string{"desde": f.Desde, "hasta": f.Hasta} {
		if d == "" {
			continue
		}
		if _, err := schedule.ParseDate(d); err != nil {
			return respondError(c, &ValidationError{Campos: map[string]string{name: err.Error()}})
		}
	}
	f.Limit, f.Offset = page(c)
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.Audit.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
