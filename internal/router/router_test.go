package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/handler"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

const secret = "router-secret"

// stubCatalog answers every catalog route with the action name.
type stubCatalog struct{}

func (stubCatalog) List(c echo.Context) error    { return c.String(http.StatusOK, "list") }
func (stubCatalog) Get(c echo.Context) error     { return c.String(http.StatusOK, "get") }
func (stubCatalog) Create(c echo.Context) error  { return c.String(http.StatusCreated, "create") }
func (stubCatalog) Update(c echo.Context) error  { return c.String(http.StatusOK, "update") }
func (stubCatalog) Delete(c echo.Context) error  { return c.NoContent(http.StatusNoContent) }
func (stubCatalog) Restore(c echo.Context) error { return c.String(http.StatusOK, "restore") }

func newServer(t *testing.T, invalidated *int) *echo.Echo {
	t.Helper()
	e := echo.New()
	api := e.Group("/api")
	g := Guards{JWTSecret: secret}
	g.Invalidate = func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			*invalidated++
			return next(c)
		}
	}
	s := stubCatalog{}
	RegisterCatalog(api, Catalog{
		Packages: s, Themes: s, Decors: s, FoodOptions: s, Extras: s,
		AdjustmentTypes: s, Materials: s, Categories: s,
	}, g)
	RegisterAuth(api, &handler.AuthHandler{}, g)
	RegisterUsers(api, &handler.UserHandler{}, g)
	RegisterReservations(api, &handler.ReservationHandler{}, &handler.PaymentHandler{}, g)
	RegisterQuotations(api, &handler.QuotationHandler{}, g)
	RegisterPayments(api, &handler.PaymentHandler{}, g)
	RegisterInventory(api, &handler.InventoryHandler{}, g)
	RegisterFinance(api, &handler.FinanceHandler{}, g)
	RegisterAudit(api, &handler.AuditHandler{}, g)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, role string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		at, err := utils.NewAccessToken(secret, 9, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+at.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
	n := 0
	e := newServer(t, &n)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/signup",
		"POST /api/auth/refresh",
		"GET /api/usuarios/me",
		"POST /api/paquetes/:id/restaurar",
		"GET /api/inventario/materias-primas",
		"GET /api/finanzas/categorias/:id",
		"GET /api/reservas/disponibilidad",
		"GET /api/reservas/fechas-ocupadas",
		"POST /api/reservas/initiate",
		"POST /api/reservas/confirm",
		"GET /api/reservas/pre/:id",
		"PATCH /api/reservas/:id/estado",
		"POST /api/cotizaciones/:id/convertir",
		"GET /api/cotizaciones/codigo/:codigo",
		"POST /api/pagos/:id/cancelar",
		"PUT /api/inventario/alertas/leer",
		"GET /api/finanzas/resumen",
		"GET /api/auditoria",
	} {
		assert.True(t, have[want], want)
	}
}

func TestPublicCatalogReadableByGuests(t *testing.T) {
	n := 0
	e := newServer(t, &n)
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/api/paquetes", ""))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/api/extras/2", ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodGet, "/api/inventario/materias-primas", ""))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/api/inventario/materias-primas", model.RoleCliente))
}

func TestCatalogWritesAreAdminOnlyAndInvalidate(t *testing.T) {
	n := 0
	e := newServer(t, &n)
	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodPost, "/api/paquetes", ""))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/api/paquetes", model.RoleCliente))
	assert.Equal(t, 0, n)

	assert.Equal(t, http.StatusCreated, call(t, e, http.MethodPost, "/api/paquetes", model.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, call(t, e, http.MethodDelete, "/api/tematicas/1", model.RoleAdmin))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodPost, "/api/mamparas/1/restaurar", model.RoleAdmin))
	assert.Equal(t, 3, n)
}

func TestBackOfficeGuards(t *testing.T) {
	n := 0
	e := newServer(t, &n)
	for _, path := range []string{"/api/usuarios", "/api/finanzas", "/api/auditoria", "/api/inventario/lotes", "/api/pagos"} {
		assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodGet, path, ""), path)
		assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodGet, path, model.RoleCliente), path)
	}
	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodGet, "/api/reservas", ""))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPatch, "/api/reservas/1/estado", model.RoleCliente))
}
