package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/handler"
)

// RegisterInventory mounts lots, movements and alerts.  Stock changes are
// admin only; every user reads the alerts addressed to them.
func RegisterInventory(api *echo.Group, h *handler.InventoryHandler, g Guards) {
	grp := api.Group("/inventario", g.auth(), anyRole())

	grp.GET("/lotes", h.ListLots, adminOnly())
	grp.GET("/lotes/:id", h.GetLot, adminOnly())
	grp.POST("/lotes", h.CreateLot, adminOnly())
	grp.DELETE("/lotes/:id", h.DeleteLot, adminOnly())

	grp.GET("/movimientos", h.ListMovements, adminOnly())
	grp.POST("/movimientos", h.CreateMovement, adminOnly())

	grp.GET("/alertas", h.ListAlerts)
	grp.GET("/alertas/resumen", h.AlertSummary)
	grp.PUT("/alertas/leer", h.MarkRead)
	grp.POST("/alertas", h.RaiseAlert, adminOnly())
}

// RegisterFinance mounts /api/finanzas (admin).  Categories live in the
// catalog routes.
func RegisterFinance(api *echo.Group, h *handler.FinanceHandler, g Guards) {
	grp := api.Group("/finanzas", g.auth(), adminOnly())
	grp.GET("", h.List)
	grp.POST("", h.Create)
	grp.GET("/resumen", h.Summary)
}

// RegisterAudit mounts GET /api/auditoria (admin).
func RegisterAudit(api *echo.Group, h *handler.AuditHandler, g Guards) {
	api.GET("/auditoria", h.List, g.auth(), adminOnly())
}
