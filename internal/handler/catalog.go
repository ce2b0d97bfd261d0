package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

// CatalogHandler serves the CRUD of one soft-deletable catalog table.
// Reads are public; writes are admin only (enforced by the router).
type CatalogHandler[T model.SoftDeletable] struct {
	store  *repository.CatalogStore[T]
	check  func(*T) error
	create func(context.Context, service.Actor, T) (T, error)
	update func(context.Context, service.Actor, uint64, T) (T, error)
}

// NewCatalogHandler writes straight to the store after check passes.
func NewCatalogHandler[T model.SoftDeletable](store *repository.CatalogStore[T], check func(*T) error) *CatalogHandler[T] {
	h := &CatalogHandler[T]{store: store, check: check}
	h.create = func(ctx context.Context, _ service.Actor, v T) (T, error) {
		if err := h.check(&v); err != nil {
			var zero T
			return zero, err
		}
		return h.store.Create(ctx, &v)
	}
	h.update = func(ctx context.Context, _ service.Actor, id uint64, v T) (T, error) {
		if err := h.check(&v); err != nil {
			var zero T
			return zero, err
		}
		return h.store.Update(ctx, id, &v)
	}
	return h
}

// WithWriters routes create and update through a workflow that has side
// effects, such as raw materials raising stock alerts.
func (h *CatalogHandler[T]) WithWriters(
	create func(context.Context, service.Actor, T) (T, error),
	update func(context.Context, service.Actor, uint64, T) (T, error),
) *CatalogHandler[T] {
	h.create, h.update = create, update
	return h
}

// List returns active rows; admins may add ?incluir_inactivos=true.
func (h *CatalogHandler[T]) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	rows, err := h.store.List(ctx, includeInactive(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Get returns the row whatever its activo flag.
func (h *CatalogHandler[T]) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	v, err := h.store.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CatalogHandler[T]) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var v T
	if err := c.Bind(&v); err != nil {
		return respondError(c, &ValidationError{Campos: map[string]string{"body": "JSON inválido"}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	out, err := h.create(ctx, a, v)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CatalogHandler[T]) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var v T
	if err := c.Bind(&v); err != nil {
		return respondError(c, &ValidationError{Campos: map[string]string{"body": "JSON inválido"}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	out, err := h.update(ctx, a, id, v)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete flips activo off.  Live references answer 409.
func (h *CatalogHandler[T]) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.store.SoftDelete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler[T]) Restore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	v, err := h.store.Restore(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ----- per-table checks -----

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{service.ErrInvalidInput}, args...)...)
}

func requireName(n *string) error {
	*n = strings.TrimSpace(*n)
	if *n == "" {
		return invalid("nombre es obligatorio")
	}
	if len(*n) > 100 {
		return invalid("nombre admite 100 caracteres como máximo")
	}
	return nil
}

func CheckPackage(p *model.Package) error {
	if err := requireName(&p.Nombre); err != nil {
		return err
	}
	if p.Precio.IsNegative() {
		return invalid("precio no puede ser negativo")
	}
	if p.Capacidad <= 0 {
		return invalid("capacidad debe ser mayor que 0")
	}
	return nil
}

func CheckTheme(t *model.Theme) error { return requireName(&t.Nombre) }

func CheckDecor(d *model.Decor) error {
	if err := requireName(&d.Nombre); err != nil {
		return err
	}
	if d.Precio.IsNegative() {
		return invalid("precio no puede ser negativo")
	}
	if d.Piezas < 0 {
		return invalid("piezas no puede ser negativo")
	}
	return nil
}

func CheckFoodOption(f *model.FoodOption) error {
	if err := requireName(&f.Nombre); err != nil {
		return err
	}
	if f.PrecioAdulto.IsNegative() || f.PrecioNino.IsNegative() {
		return invalid("los precios no pueden ser negativos")
	}
	if f.CantidadPorPersona.IsNegative() {
		return invalid("cantidad_por_persona no puede ser negativa")
	}
	if f.IDMateriaPrima != nil && f.CantidadPorPersona.IsZero() {
		return invalid("cantidad_por_persona es obligatoria con id_materia_prima")
	}
	return nil
}

func CheckExtra(e *model.Extra) error {
	if err := requireName(&e.Nombre); err != nil {
		return err
	}
	if e.Precio.IsNegative() {
		return invalid("precio no puede ser negativo")
	}
	return nil
}

func CheckAdjustmentType(t *model.AdjustmentType) error { return requireName(&t.Nombre) }
