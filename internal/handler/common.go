package handler // handler holds the HTTP endpoints of the venue API

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/middleware"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// dbTimeout bounds the database work of one request.
const dbTimeout = 5 * time.Second

const (
	defaultLimit = 50
	maxLimit     = 200
)

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actor returns the authenticated caller.  Routes using it sit behind
// JWTAuth, so a missing id is a wiring bug and surfaces as 401.
func actor(c echo.Context) (service.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return service.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token requerido")
	}
	return service.Actor{ID: id, Role: middleware.Role(c)}, nil
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &ValidationError{Campos: map[string]string{"body": "JSON inválido"}}
	}
	return c.Validate(dst)
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Campos: map[string]string{name: "id inválido"}}
	}
	return id, nil
}

// optUint reads an optional numeric query parameter.
func optUint(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, &ValidationError{Campos: map[string]string{name: "debe ser numérico"}}
	}
	return &n, nil
}

// optCount reads an optional non-negative integer query parameter,
// defaulting to zero.
func optCount(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ValidationError{Campos: map[string]string{name: "debe ser un entero no negativo"}}
	}
	return n, nil
}

// optBool reads an optional true/false query parameter.
func optBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &ValidationError{Campos: map[string]string{name: "debe ser true o false"}}
	}
	return &b, nil
}

// page reads limit/offset with the listing defaults.
func page(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// includeInactive is honoured for admins only.
func includeInactive(c echo.Context) bool {
	return middleware.IsAdmin(c) && c.QueryParam("incluir_inactivos") == "true"
}

// respondError maps repository and workflow sentinels onto status codes.
// Anything unrecognised goes to the HTTP error handler as a 500.
func respondError(c echo.Context, err error) error {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "datos inválidos", "campos": ve.Campos})
	case errors.As(err, &he):
		return he
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recurso no encontrado"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "acceso denegado"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "el email ya está registrado"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ya existe un registro con ese nombre o código"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "el registro tiene dependencias activas"})
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrQuotationExpired),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrPaymentNotVerified):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, lock.ErrBusy):
		return c.JSON(http.StatusConflict, echo.Map{"error": "la fecha está siendo reservada, intente de nuevo"})
	}
	return err
}
