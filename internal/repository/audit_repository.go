package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// AuditRepo is an append-only store of mutating requests.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one record.
func (r *AuditRepo) Insert(ctx context.Context, a model.AuditRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO auditoria (id_usuario, metodo, ruta, datos) VALUES (?,?,?,?)",
		a.IDUsuario, a.Metodo, a.Ruta, a.Datos)
	return err
}

// List returns records newest first.
func (r *AuditRepo) List(ctx context.Context, f model.AuditFilter) ([]model.AuditRecord, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.IDUsuario != nil {
		where = append(where, "id_usuario = ?")
		args = append(args, *f.IDUsuario)
	}
	if f.Metodo != "" {
		where = append(where, "metodo = ?")
		args = append(args, strings.ToUpper(f.Metodo))
	}
	if f.Desde != "" {
		where = append(where, "fecha >= ?")
		args = append(args, f.Desde+" 00:00:00")
	}
	if f.Hasta != "" {
		where = append(where, "fecha <= ?")
		args = append(args, f.Hasta+" 23:59:59")
	}
	q, args := paginate("SELECT id, id_usuario, metodo, ruta, datos, fecha FROM auditoria WHERE "+
		strings.Join(where, " AND ")+" ORDER BY fecha DESC, id DESC", args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditRecord{}
	for rows.Next() {
		var a model.AuditRecord
		if err := rows.Scan(&a.ID, &a.IDUsuario, &a.Metodo, &a.Ruta, &a.Datos, &a.Fecha); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
