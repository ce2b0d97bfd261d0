package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// InventoryRepo persists lots and stock movements and applies stock deltas.
// Raw material rows themselves are handled by the catalog store.
type InventoryRepo struct{ db *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// DB exposes the underlying handle so workflows can open transactions.
func (r *InventoryRepo) DB() *sql.DB { return r.db }

// AddStockTx applies a signed delta to a material's stock.
func (r *InventoryRepo) AddStockTx(ctx context.Context, tx *sql.Tx, materialID uint64, delta decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE materias_primas SET stock_actual = stock_actual + ? WHERE id = ?", delta, materialID)
	return err
}

// CreateMovementTx records a movement and stores its id in m.
func (r *InventoryRepo) CreateMovementTx(ctx context.Context, tx *sql.Tx, m *model.Movement) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO movimientos_inventario (id_materia_prima, id_lote, tipo, cantidad, id_tipo_ajuste, descripcion, id_usuario, fecha)
		 VALUES (?,?,?,?,?,?,?,?)`,
		m.IDMateriaPrima, m.IDLote, m.Tipo, m.Cantidad, m.IDTipoAjuste, m.Descripcion, m.IDUsuario, m.Fecha)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// ListMovements returns movements newest first, optionally for one material.
func (r *InventoryRepo) ListMovements(ctx context.Context, materialID *uint64, limit, offset int) ([]model.Movement, error) {
	q := `SELECT id, id_materia_prima, id_lote, tipo, cantidad, id_tipo_ajuste, descripcion, id_usuario, fecha
	      FROM movimientos_inventario`
	args := []any{}
	if materialID != nil {
		q += " WHERE id_materia_prima = ?"
		args = append(args, *materialID)
	}
	q += " ORDER BY fecha DESC, id DESC"
	q, args = paginate(q, args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movement{}
	for rows.Next() {
		var m model.Movement
		if err := rows.Scan(&m.ID, &m.IDMateriaPrima, &m.IDLote, &m.Tipo, &m.Cantidad, &m.IDTipoAjuste,
			&m.Descripcion, &m.IDUsuario, &m.Fecha); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const lotSelect = `SELECT id, id_materia_prima, codigo_lote, cantidad, DATE_FORMAT(fecha_caducidad, '%Y-%m-%d'),
activo, fecha_creacion FROM lotes`

func scanLot(s rowScanner, l *model.Lot) error {
	return s.Scan(&l.ID, &l.IDMateriaPrima, &l.CodigoLote, &l.Cantidad, &l.FechaCaducidad, &l.Activo, &l.CreatedAt)
}

// CreateLotTx inserts a lot and reads it back.
func (r *InventoryRepo) CreateLotTx(ctx context.Context, tx *sql.Tx, l *model.Lot) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO lotes (id_materia_prima, codigo_lote, cantidad, fecha_caducidad) VALUES (?,?,?,?)",
		l.IDMateriaPrima, strings.TrimSpace(l.CodigoLote), l.Cantidad, l.FechaCaducidad)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanLot(tx.QueryRowContext(ctx, lotSelect+" WHERE id = ?", id), l)
}

// GetLot loads a lot by id, active or not.
func (r *InventoryRepo) GetLot(ctx context.Context, id uint64) (model.Lot, error) {
	var l model.Lot
	err := scanLot(r.db.QueryRowContext(ctx, lotSelect+" WHERE id = ?", id), &l)
	return l, translate(err)
}

// GetLotForUpdateTx loads a lot and locks it until tx ends.
func (r *InventoryRepo) GetLotForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Lot, error) {
	var l model.Lot
	err := scanLot(tx.QueryRowContext(ctx, lotSelect+" WHERE id = ? FOR UPDATE", id), &l)
	return l, translate(err)
}

// AddLotQtyTx applies a signed delta to a lot's quantity on hand.
func (r *InventoryRepo) AddLotQtyTx(ctx context.Context, tx *sql.Tx, lotID uint64, delta decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, "UPDATE lotes SET cantidad = cantidad + ? WHERE id = ?", delta, lotID)
	return err
}

// ListLots returns lots ordered by expiry, soonest first.
func (r *InventoryRepo) ListLots(ctx context.Context, materialID *uint64, includeInactive bool) ([]model.Lot, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if materialID != nil {
		where = append(where, "id_materia_prima = ?")
		args = append(args, *materialID)
	}
	if !includeInactive {
		where = append(where, "activo = 1")
	}
	rows, err := r.db.QueryContext(ctx,
		lotSelect+" WHERE "+strings.Join(where, " AND ")+" ORDER BY fecha_caducidad IS NULL, fecha_caducidad, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Lot{}
	for rows.Next() {
		var l model.Lot
		if err := scanLot(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SoftDeleteLot retires a lot.
func (r *InventoryRepo) SoftDeleteLot(ctx context.Context, id uint64) error {
	if err := rowExists(ctx, r.db, "lotes", id); err != nil {
		return err
	}
	return setActive(ctx, r.db, "lotes", id, false)
}

// Sweep alerts go to the material's responsable, or to the oldest active
// admin when none is set.
const recipientCol = `COALESCE(m.id_usuario_responsable,
  (SELECT MIN(u.id) FROM usuarios u WHERE u.rol = 'admin' AND u.activo = 1))`

// AlertCandidate is a material or lot that a periodic sweep should alert
// on, together with the user the alert goes to.
type AlertCandidate struct {
	MaterialID  uint64
	LotID       *uint64
	Nombre      string
	Detalle     string
	Fecha       string
	Responsable *uint64
}

// LotsExpiringWithin lists active lots expiring in the next days days
// that have no unread expiry alert yet.
func (r *InventoryRepo) LotsExpiringWithin(ctx context.Context, days int) ([]AlertCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, l.id, m.nombre, l.codigo_lote, DATE_FORMAT(l.fecha_caducidad, '%Y-%m-%d'), `+recipientCol+`
FROM lotes l JOIN materias_primas m ON m.id = l.id_materia_prima
WHERE l.activo = 1 AND m.activo = 1 AND l.fecha_caducidad IS NOT NULL
  AND l.fecha_caducidad <= DATE_ADD(CURDATE(), INTERVAL ? DAY)
  AND NOT EXISTS (SELECT 1 FROM alertas_inventario a WHERE a.id_lote = l.id AND a.tipo = 'caducidad' AND a.leida = 0)
ORDER BY l.fecha_caducidad`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AlertCandidate{}
	for rows.Next() {
		var c AlertCandidate
		var lot uint64
		if err := rows.Scan(&c.MaterialID, &lot, &c.Nombre, &c.Detalle, &c.Fecha, &c.Responsable); err != nil {
			return nil, err
		}
		c.LotID = &lot
		out = append(out, c)
	}
	return out, rows.Err()
}

// SupplierDeadlinesWithin lists active materials whose supplier deadline
// falls in the next days days and that have no unread deadline alert.
func (r *InventoryRepo) SupplierDeadlinesWithin(ctx context.Context, days int) ([]AlertCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.nombre, COALESCE(m.proveedor, ''), DATE_FORMAT(m.fecha_limite_proveedor, '%Y-%m-%d'), `+recipientCol+`
FROM materias_primas m
WHERE m.activo = 1 AND m.fecha_limite_proveedor IS NOT NULL
  AND m.fecha_limite_proveedor <= DATE_ADD(CURDATE(), INTERVAL ? DAY)
  AND NOT EXISTS (SELECT 1 FROM alertas_inventario a WHERE a.id_materia_prima = m.id AND a.tipo = 'fecha_limite_proveedor' AND a.leida = 0)
ORDER BY m.fecha_limite_proveedor`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AlertCandidate{}
	for rows.Next() {
		var c AlertCandidate
		if err := rows.Scan(&c.MaterialID, &c.Nombre, &c.Detalle, &c.Fecha, &c.Responsable); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
