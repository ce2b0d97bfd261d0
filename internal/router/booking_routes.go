package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/handler"
)

// RegisterReservations mounts /api/reservas, including the pay-first
// initiate/confirm pair.  Availability and blocked dates are public.
func RegisterReservations(api *echo.Group, r *handler.ReservationHandler, p *handler.PaymentHandler, g Guards) {
	api.GET("/reservas/disponibilidad", r.CheckAvailability)
	api.GET("/reservas/fechas-ocupadas", r.BlockedDates)

	grp := api.Group("/reservas", g.auth(), anyRole())
	grp.GET("", r.List)
	grp.POST("", r.Create)
	grp.POST("/initiate", p.Initiate)
	grp.POST("/confirm", p.Confirm)
	grp.GET("/pre/:id", p.PreReservation)
	grp.GET("/:id", r.Get)
	grp.PUT("/:id", r.Update)
	grp.PATCH("/:id/estado", r.SetStatus, adminOnly())
	grp.DELETE("/:id", r.Delete)
}

// RegisterQuotations mounts /api/cotizaciones.
func RegisterQuotations(api *echo.Group, q *handler.QuotationHandler, g Guards) {
	api.GET("/cotizaciones/disponibilidad", q.CheckAvailability)

	grp := api.Group("/cotizaciones", g.auth(), anyRole())
	grp.GET("", q.List)
	grp.POST("", q.Create)
	grp.GET("/codigo/:codigo", q.GetByCode)
	grp.GET("/:id", q.Get)
	grp.POST("/:id/convertir", q.Convert)
}

// RegisterPayments mounts /api/pagos.  iniciar and confirmar alias the
// /api/reservas initiate and confirm routes.
func RegisterPayments(api *echo.Group, p *handler.PaymentHandler, g Guards) {
	grp := api.Group("/pagos", g.auth(), anyRole())
	grp.POST("/iniciar", p.Initiate)
	grp.POST("/confirmar", p.Confirm)
	grp.GET("/mios", p.Mine)
	grp.GET("", p.List, adminOnly())
	grp.POST("/:id/cancelar", p.Cancel)
}
