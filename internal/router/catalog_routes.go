package router

import "github.com/labstack/echo/v4"

// catalogRoutes is satisfied by every handler.CatalogHandler[T].
type catalogRoutes interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
	Restore(echo.Context) error
}

// Catalog names the handlers mounted by RegisterCatalog, keyed by path.
type Catalog struct {
	Packages        catalogRoutes
	Themes          catalogRoutes
	Decors          catalogRoutes
	FoodOptions     catalogRoutes
	Extras          catalogRoutes
	AdjustmentTypes catalogRoutes
	Materials       catalogRoutes
	Categories      catalogRoutes
}

// RegisterCatalog mounts the soft-delete CRUD tables.  The sales catalog
// (paquetes, tematicas, mamparas, opciones-alimento, extras) is readable by
// guests through the response cache; the back-office tables need a
// session.  Writes are admin only and purge the cache.
func RegisterCatalog(api *echo.Group, cat Catalog, g Guards) {
	g = g.withDefaults()
	public := []struct {
		path string
		h    catalogRoutes
	}{
		{"/paquetes", cat.Packages},
		{"/tematicas", cat.Themes},
		{"/mamparas", cat.Decors},
		{"/opciones-alimento", cat.FoodOptions},
		{"/extras", cat.Extras},
	}
	for _, r := range public {
		mount(api.Group(r.path), r.h, []echo.MiddlewareFunc{g.optional(), g.Cache}, g)
	}

	private := []struct {
		path string
		h    catalogRoutes
	}{
		{"/inventario/materias-primas", cat.Materials},
		{"/inventario/tipos-ajuste", cat.AdjustmentTypes},
		{"/finanzas/categorias", cat.Categories},
	}
	for _, r := range private {
		mount(api.Group(r.path), r.h, []echo.MiddlewareFunc{g.auth(), anyRole()}, g)
	}
}

func mount(grp *echo.Group, h catalogRoutes, read []echo.MiddlewareFunc, g Guards) {
	grp.GET("", h.List, read...)
	grp.GET("/:id", h.Get, read...)

	write := []echo.MiddlewareFunc{g.auth(), adminOnly(), g.Invalidate}
	grp.POST("", h.Create, write...)
	grp.PUT("/:id", h.Update, write...)
	grp.DELETE("/:id", h.Delete, write...)
	grp.POST("/:id/restaurar", h.Restore, write...)
}
