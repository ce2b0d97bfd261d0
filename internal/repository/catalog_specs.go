package repository

import (
	"database/sql"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// Live reservations are the ones that still block a catalog item from
// being retired: active, not cancelled and not in the past.
const liveReservation = "activo = 1 AND estado IN ('pendiente','confirmada') AND fecha_reserva >= CURDATE()"

const timestampCols = "activo, fecha_creacion, fecha_actualizacion"

// NewPackageStore returns the store for paquetes.
func NewPackageStore(db *sql.DB) *CatalogStore[model.Package] {
	return NewCatalogStore(db, CatalogSpec[model.Package]{
		Table:      "paquetes",
		Columns:    []string{"nombre", "descripcion", "precio", "capacidad"},
		SelectCols: "id, nombre, descripcion, precio, capacidad, " + timestampCols,
		Scan: func(r rowScanner, p *model.Package) error {
			return r.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Capacidad, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
		},
		Values: func(p *model.Package) []any {
			return []any{p.Nombre, p.Descripcion, p.Precio, p.Capacidad}
		},
		Dependents: []string{
			"SELECT COUNT(*) FROM reservas WHERE id_paquete = ? AND " + liveReservation,
		},
	})
}

// NewThemeStore returns the store for tematicas.  A theme in use by active
// decor or food options cannot be retired.
func NewThemeStore(db *sql.DB) *CatalogStore[model.Theme] {
	return NewCatalogStore(db, CatalogSpec[model.Theme]{
		Table:      "tematicas",
		Columns:    []string{"nombre", "descripcion"},
		SelectCols: "id, nombre, descripcion, " + timestampCols,
		Scan: func(r rowScanner, t *model.Theme) error {
			return r.Scan(&t.ID, &t.Nombre, &t.Descripcion, &t.Activo, &t.CreatedAt, &t.UpdatedAt)
		},
		Values: func(t *model.Theme) []any { return []any{t.Nombre, t.Descripcion} },
		Dependents: []string{
			"SELECT COUNT(*) FROM reservas WHERE id_tematica = ? AND " + liveReservation,
			"SELECT COUNT(*) FROM mamparas WHERE id_tematica = ? AND activo = 1",
			"SELECT COUNT(*) FROM opciones_alimento WHERE id_tematica = ? AND activo = 1",
		},
	})
}

// NewDecorStore returns the store for mamparas.
func NewDecorStore(db *sql.DB) *CatalogStore[model.Decor] {
	return NewCatalogStore(db, CatalogSpec[model.Decor]{
		Table:      "mamparas",
		Columns:    []string{"nombre", "id_tematica", "precio", "piezas"},
		SelectCols: "id, nombre, id_tematica, precio, piezas, " + timestampCols,
		Scan: func(r rowScanner, d *model.Decor) error {
			return r.Scan(&d.ID, &d.Nombre, &d.IDTematica, &d.Precio, &d.Piezas, &d.Activo, &d.CreatedAt, &d.UpdatedAt)
		},
		Values: func(d *model.Decor) []any { return []any{d.Nombre, d.IDTematica, d.Precio, d.Piezas} },
		Dependents: []string{
			"SELECT COUNT(*) FROM reservas WHERE id_mampara = ? AND " + liveReservation,
		},
	})
}

// NewFoodOptionStore returns the store for opciones_alimento.
func NewFoodOptionStore(db *sql.DB) *CatalogStore[model.FoodOption] {
	return NewCatalogStore(db, CatalogSpec[model.FoodOption]{
		Table:      "opciones_alimento",
		Columns:    []string{"nombre", "id_tematica", "precio_adulto", "precio_nino", "id_materia_prima", "cantidad_por_persona"},
		SelectCols: "id, nombre, id_tematica, precio_adulto, precio_nino, id_materia_prima, cantidad_por_persona, " + timestampCols,
		Scan: func(r rowScanner, f *model.FoodOption) error {
			return r.Scan(&f.ID, &f.Nombre, &f.IDTematica, &f.PrecioAdulto, &f.PrecioNino,
				&f.IDMateriaPrima, &f.CantidadPorPersona, &f.Activo, &f.CreatedAt, &f.UpdatedAt)
		},
		Values: func(f *model.FoodOption) []any {
			return []any{f.Nombre, f.IDTematica, f.PrecioAdulto, f.PrecioNino, f.IDMateriaPrima, f.CantidadPorPersona}
		},
		Dependents: []string{
			"SELECT COUNT(*) FROM reservas WHERE id_opcion_alimento = ? AND " + liveReservation,
		},
	})
}

// NewExtraStore returns the store for extras.
func NewExtraStore(db *sql.DB) *CatalogStore[model.Extra] {
	return NewCatalogStore(db, CatalogSpec[model.Extra]{
		Table:      "extras",
		Columns:    []string{"nombre", "descripcion", "precio"},
		SelectCols: "id, nombre, descripcion, precio, " + timestampCols,
		Scan: func(r rowScanner, e *model.Extra) error {
			return r.Scan(&e.ID, &e.Nombre, &e.Descripcion, &e.Precio, &e.Activo, &e.CreatedAt, &e.UpdatedAt)
		},
		Values: func(e *model.Extra) []any { return []any{e.Nombre, e.Descripcion, e.Precio} },
		Dependents: []string{
			`SELECT COUNT(*) FROM reserva_extras re JOIN reservas r ON r.id = re.id_reserva
			 WHERE re.id_extra = ? AND r.activo = 1 AND r.estado IN ('pendiente','confirmada') AND r.fecha_reserva >= CURDATE()`,
		},
	})
}

// NewAdjustmentTypeStore returns the store for tipos_ajuste.
func NewAdjustmentTypeStore(db *sql.DB) *CatalogStore[model.AdjustmentType] {
	return NewCatalogStore(db, CatalogSpec[model.AdjustmentType]{
		Table:      "tipos_ajuste",
		Columns:    []string{"nombre", "descripcion"},
		SelectCols: "id, nombre, descripcion, " + timestampCols,
		Scan: func(r rowScanner, a *model.AdjustmentType) error {
			return r.Scan(&a.ID, &a.Nombre, &a.Descripcion, &a.Activo, &a.CreatedAt, &a.UpdatedAt)
		},
		Values: func(a *model.AdjustmentType) []any { return []any{a.Nombre, a.Descripcion} },
	})
}

// NewCategoryStore returns the store for finance categorias.
func NewCategoryStore(db *sql.DB) *CatalogStore[model.Category] {
	return NewCatalogStore(db, CatalogSpec[model.Category]{
		Table:      "categorias",
		Columns:    []string{"nombre", "tipo"},
		SelectCols: "id, nombre, tipo, " + timestampCols,
		Scan: func(r rowScanner, c *model.Category) error {
			return r.Scan(&c.ID, &c.Nombre, &c.Tipo, &c.Activo, &c.CreatedAt, &c.UpdatedAt)
		},
		Values: func(c *model.Category) []any { return []any{c.Nombre, c.Tipo} },
	})
}

// NewRawMaterialStore returns the store for materias_primas.  Stock is
// written here only on create and edit; movements go through InventoryRepo.
func NewRawMaterialStore(db *sql.DB) *CatalogStore[model.RawMaterial] {
	return NewCatalogStore(db, CatalogSpec[model.RawMaterial]{
		Table: "materias_primas",
		Columns: []string{"nombre", "unidad_medida", "stock_actual", "stock_minimo",
			"proveedor", "fecha_limite_proveedor", "id_usuario_responsable"},
		SelectCols: "id, nombre, unidad_medida, stock_actual, stock_minimo, proveedor, " +
			"DATE_FORMAT(fecha_limite_proveedor, '%Y-%m-%d'), id_usuario_responsable, " + timestampCols,
		Scan: func(r rowScanner, m *model.RawMaterial) error {
			return r.Scan(&m.ID, &m.Nombre, &m.UnidadMedida, &m.StockActual, &m.StockMinimo, &m.Proveedor,
				&m.FechaLimiteProveedor, &m.IDUsuarioResponsable, &m.Activo, &m.CreatedAt, &m.UpdatedAt)
		},
		Values: func(m *model.RawMaterial) []any {
			return []any{m.Nombre, m.UnidadMedida, m.StockActual, m.StockMinimo,
				m.Proveedor, m.FechaLimiteProveedor, m.IDUsuarioResponsable}
		},
		Dependents: []string{
			"SELECT COUNT(*) FROM opciones_alimento WHERE id_materia_prima = ? AND activo = 1",
		},
	})
}
