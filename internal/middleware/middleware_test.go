package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/iliyamo/party-venue-reservation/internal/config"
	"github.com/iliyamo/party-venue-reservation/internal/metrics"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

const testSecret = "test-secret"

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(testSecret, id, role, 5)
	require.NoError(t, err)
	return at.Token
}

func newEcho(production bool) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(production)
	e.Use(echomw.RequestID(), RequestLogger(), Recover())
	return e
}

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
}

func TestJWTAuth(t *testing.T) {
	e := newEcho(false)
	e.GET("/me", whoami, JWTAuth(testSecret, "token"))

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		errMsg string
		id     int64
	}{
		{name: "missing", setup: func(*http.Request) {}, status: 401, errMsg: "token requerido"},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: 401, errMsg: "token inválido"},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 7, model.RoleCliente)) }, status: 200, id: 7},
		{name: "cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: token(t, 9, model.RoleAdmin)})
		}, status: 200, id: 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			body := rec.Body.String()
			if tc.errMsg != "" {
				assert.Equal(t, tc.errMsg, gjson.Get(body, "error").String())
				return
			}
			assert.Equal(t, tc.id, gjson.Get(body, "id").Int())
		})
	}
}

func TestOptionalAuthLeavesGuestsAnonymous(t *testing.T) {
	e := newEcho(false)
	e.GET("/pub", whoami, OptionalAuth(testSecret, "token"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pub", nil)
	req.Header.Set("Authorization", "Bearer broken")
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, gjson.Null, gjson.Get(rec.Body.String(), "id").Type)
}

func TestRequireRole(t *testing.T) {
	e := newEcho(false)
	e.GET("/admin", whoami, JWTAuth(testSecret, ""), RequireRole(model.RoleAdmin))

	for role, want := range map[string]int{model.RoleAdmin: 200, model.RoleCliente: 403} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, 1, role))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestErrorHandlerStackOnlyOutsideProduction(t *testing.T) {
	for _, prod := range []bool{false, true} {
		e := newEcho(prod)
		e.GET("/boom", func(echo.Context) error { panic("kaboom") })
		e.GET("/missing", func(echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "no existe") })
		e.GET("/fail", func(echo.Context) error { return errors.New("db down") })

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := rec.Body.String()
		assert.Equal(t, "error interno del servidor", gjson.Get(body, "error").String())
		assert.Equal(t, !prod, gjson.Get(body, "stack").Exists(), "production=%v", prod)
		if !prod {
			assert.Contains(t, gjson.Get(body, "stack").String(), "goroutine")
		}

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no existe", gjson.Get(rec.Body.String(), "error").String())
		assert.False(t, gjson.Get(rec.Body.String(), "stack").Exists())

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	}
}

func TestRequestLoggerKeepsRequestID(t *testing.T) {
	e := newEcho(false)
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRedact(t *testing.T) {
	out := redact([]byte(`{"email":"a@b.c","password":"x","perfil":{"Token":"t"},"lista":[{"refresh_token":"r","n":1}]}`))
	assert.Equal(t, "a@b.c", gjson.Get(out, "email").String())
	assert.Equal(t, redactedMask, gjson.Get(out, "password").String())
	assert.Equal(t, redactedMask, gjson.Get(out, "perfil.Token").String())
	assert.Equal(t, redactedMask, gjson.Get(out, "lista.0.refresh_token").String())
	assert.Equal(t, int64(1), gjson.Get(out, "lista.0.n").Int())

	assert.Equal(t, "plain", redact([]byte("plain")))
	assert.Equal(t, "<cuerpo no JSON>", redact([]byte(strings.Repeat("x", 300))))
	assert.Equal(t, "", redact(nil))
}

type memAudit struct {
	mu   sync.Mutex
	recs []model.AuditRecord
}

func (m *memAudit) Insert(_ context.Context, a model.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, a)
	return nil
}

func TestAuditRecordsMutationsWithRedactedBody(t *testing.T) {
	w := &memAudit{}
	e := newEcho(false)
	g := e.Group("/api", Audit(w))
	echoBody := func(c echo.Context) error {
		var in map[string]any
		if err := c.Bind(&in); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, in)
	}
	g.POST("/usuarios", echoBody, JWTAuth(testSecret, ""))
	g.GET("/usuarios", whoami)

	req := httptest.NewRequest(http.MethodPost, "/api/usuarios", strings.NewReader(`{"nombre":"Ana","password":"secreta123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, 4, model.RoleAdmin))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	// the handler still sees the full body
	assert.Equal(t, "secreta123", gjson.Get(rec.Body.String(), "password").String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usuarios", nil))

	require.Len(t, w.recs, 1)
	got := w.recs[0]
	assert.Equal(t, http.MethodPost, got.Metodo)
	assert.Equal(t, "/api/usuarios", got.Ruta)
	require.NotNil(t, got.IDUsuario)
	assert.Equal(t, uint64(4), *got.IDUsuario)
	require.NotNil(t, got.Datos)
	assert.Equal(t, "Ana", gjson.Get(*got.Datos, "nombre").String())
	assert.Equal(t, redactedMask, gjson.Get(*got.Datos, "password").String())
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/api/reservas/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for _, id := range []string{"1", "2", "3"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reservas/"+id, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/reservas/:id", "204")))
}

func TestCacheKeyUsesConcretePath(t *testing.T) {
	a := cacheKey("catalogo", httptest.NewRequest(http.MethodGet, "/api/paquetes/1", nil))
	b := cacheKey("catalogo", httptest.NewRequest(http.MethodGet, "/api/paquetes/2", nil))
	c := cacheKey("catalogo", httptest.NewRequest(http.MethodGet, "/api/paquetes/1?x=1", nil))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "catalogo:"))
	assert.Equal(t, a, cacheKey("catalogo", httptest.NewRequest(http.MethodGet, "/api/paquetes/1", nil)))
}

func TestTeeWriterDropsOversizedBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &teeWriter{ResponseWriter: rec, limit: 8}
	_, _ = tw.Write([]byte("hola"))
	assert.Equal(t, "hola", tw.buf.String())
	assert.False(t, tw.overflow)

	_, _ = tw.Write([]byte(" mundo"))
	assert.True(t, tw.overflow)
	assert.Zero(t, tw.buf.Len())
	assert.Equal(t, "hola mundo", rec.Body.String())
}

func TestCacheAndLimiterPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	m := metrics.New()
	e.GET("/p", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Burst: 1}, nil, m),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, m),
		InvalidateCache(config.CacheConfig{Enabled: true}, nil, m),
	)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Zero(t, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Scope: "rl:auth", PerRoute: true}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")
	assert.Equal(t, "rl:auth:ip:10.0.0.7:POST:/api/auth/login", rateKey(cfg, c))

	c.Set(CtxUserID, uint64(12))
	cfg.PerRoute = false
	assert.Equal(t, "rl:auth:u:12", rateKey(cfg, c))
}
