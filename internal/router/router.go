package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/party-venue-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/party-venue-reservation/internal/middleware" // JWT, role and cache middlewares
	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// Guards carries the middlewares shared by the route groups.  Cache and
// Invalidate may be pass-through when Redis is disabled.
type Guards struct {
	JWTSecret  string
	CookieName string
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	AuthLimit  echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// withDefaults swaps unset optional middlewares for pass-throughs.
func (g Guards) withDefaults() Guards {
	if g.Cache == nil {
		g.Cache = passthrough
	}
	if g.Invalidate == nil {
		g.Invalidate = passthrough
	}
	if g.AuthLimit == nil {
		g.AuthLimit = passthrough
	}
	return g
}

func (g Guards) auth() echo.MiddlewareFunc {
	return middleware.JWTAuth(g.JWTSecret, g.CookieName)
}

func (g Guards) optional() echo.MiddlewareFunc {
	return middleware.OptionalAuth(g.JWTSecret, g.CookieName)
}

func adminOnly() echo.MiddlewareFunc { return middleware.RequireRole(model.RoleAdmin) }

func anyRole() echo.MiddlewareFunc {
	return middleware.RequireRole(model.RoleAdmin, model.RoleCliente)
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, metrics echo.HandlerFunc) {
	e.GET("/healthz", h.Health)
	if metrics != nil {
		e.GET("/metrics", metrics)
	}
}

// RegisterAuth registers /api/auth.  Signup, login, refresh and logout
// need no session; /me does.  The auth limiter, when set, is stricter than
// the global one to slow down credential stuffing.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, g Guards) {
	g = g.withDefaults()
	auth := api.Group("/auth")
	auth.POST("/signup", a.Signup, g.AuthLimit)
	auth.POST("/login", a.Login, g.AuthLimit)
	auth.POST("/refresh", a.Refresh, g.AuthLimit)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me, g.auth(), anyRole())
}

// RegisterUsers registers /api/usuarios.  /me is open to every
// authenticated user; the rest is admin only.
func RegisterUsers(api *echo.Group, u *handler.UserHandler, g Guards) {
	grp := api.Group("/usuarios", g.auth())
	grp.GET("/me", u.Me, anyRole())
	grp.PUT("/me", u.UpdateMe, anyRole())

	grp.GET("", u.List, adminOnly())
	grp.POST("", u.Create, adminOnly())
	grp.GET("/:id", u.Get, adminOnly())
	grp.PUT("/:id", u.Update, adminOnly())
	grp.DELETE("/:id", u.Delete, adminOnly())
}
