package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// AuditWriter stores audit records.
type AuditWriter interface {
	Insert(ctx context.Context, a model.AuditRecord) error
}

// Audit appends one record per mutating request: who, method, route and
// the redacted body.  Reads are not audited.  A failed insert is logged
// and never fails the request.
func Audit(w AuditWriter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			body := snapshotBody(c)
			err := next(c)

			rec := model.AuditRecord{
				IDUsuario: userIDPtr(c),
				Metodo:    c.Request().Method,
				Ruta:      c.Request().URL.Path,
			}
			if body != "" {
				rec.Datos = &body
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 2*time.Second)
			defer cancel()
			if ierr := w.Insert(ctx, rec); ierr != nil {
				slog.Warn("audit insert failed", "path", rec.Ruta, "error", ierr)
			}
			return err
		}
	}
}
