package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// AlertRepo persists inventory alerts.  Alerts are only ever created and
// marked read.
type AlertRepo struct{ db *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

// DB exposes the underlying handle.
func (r *AlertRepo) DB() *sql.DB { return r.db }

const alertSelect = `SELECT id, id_materia_prima, id_lote, tipo, mensaje, id_usuario_destinatario, leida,
fecha_creacion, fecha_lectura FROM alertas_inventario`

func scanAlert(s rowScanner, a *model.Alert) error {
	return s.Scan(&a.ID, &a.IDMateriaPrima, &a.IDLote, &a.Tipo, &a.Mensaje, &a.IDUsuarioDestinatario,
		&a.Leida, &a.FechaCreacion, &a.FechaLectura)
}

// CreateTx inserts an alert on q and stores its id in a.
func (r *AlertRepo) CreateTx(ctx context.Context, q DBTX, a *model.Alert) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO alertas_inventario (id_materia_prima, id_lote, tipo, mensaje, id_usuario_destinatario, fecha_creacion)
		 VALUES (?,?,?,?,?,?)`,
		a.IDMateriaPrima, a.IDLote, a.Tipo, a.Mensaje, a.IDUsuarioDestinatario, a.FechaCreacion)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Create is CreateTx outside a transaction.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error { return r.CreateTx(ctx, r.db, a) }

// List returns a recipient's alerts newest first.
func (r *AlertRepo) List(ctx context.Context, f model.AlertFilter) ([]model.Alert, error) {
	where := []string{"id_usuario_destinatario = ?"}
	args := []any{f.IDUsuario}
	if f.Tipo != "" {
		where = append(where, "tipo = ?")
		args = append(args, f.Tipo)
	}
	if f.Desde != "" {
		where = append(where, "fecha_creacion >= ?")
		args = append(args, f.Desde+" 00:00:00")
	}
	if f.Hasta != "" {
		where = append(where, "fecha_creacion <= ?")
		args = append(args, f.Hasta+" 23:59:59")
	}
	if f.Leida != nil {
		where = append(where, "leida = ?")
		args = append(args, *f.Leida)
	}
	q := alertSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY fecha_creacion DESC, id DESC"
	q, args = paginate(q, args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Alert{}
	for rows.Next() {
		var a model.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkRead flags the given alerts of a recipient as read, or all of the
// recipient's unread alerts when ids is empty.  Alerts of other users are
// never touched.
func (r *AlertRepo) MarkRead(ctx context.Context, recipient uint64, ids []uint64) (int64, error) {
	q := "UPDATE alertas_inventario SET leida = 1, fecha_lectura = UTC_TIMESTAMP() WHERE id_usuario_destinatario = ? AND leida = 0"
	args := []any{recipient}
	if len(ids) > 0 {
		q += " AND id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Summary counts a recipient's alerts per type.
func (r *AlertRepo) Summary(ctx context.Context, recipient uint64) ([]model.AlertSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT tipo, COUNT(*), COALESCE(SUM(CASE WHEN leida = 0 THEN 1 ELSE 0 END), 0)
FROM alertas_inventario WHERE id_usuario_destinatario = ?
GROUP BY tipo ORDER BY tipo`, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AlertSummary{}
	for rows.Next() {
		var s model.AlertSummary
		if err := rows.Scan(&s.Tipo, &s.Total, &s.NoLeida); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
