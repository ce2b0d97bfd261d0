package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// FinanceRepo persists income and expense entries.
type FinanceRepo struct{ db *sql.DB }

func NewFinanceRepo(db *sql.DB) *FinanceRepo { return &FinanceRepo{db: db} }

// DB exposes the underlying handle.
func (r *FinanceRepo) DB() *sql.DB { return r.db }

const financeSelect = `SELECT id, tipo, monto, descripcion, id_categoria, id_reserva, id_pago,
DATE_FORMAT(fecha, '%Y-%m-%d'), id_usuario, fecha_creacion FROM finanzas`

func scanFinance(s rowScanner, f *model.FinanceEntry) error {
	return s.Scan(&f.ID, &f.Tipo, &f.Monto, &f.Descripcion, &f.IDCategoria, &f.IDReserva, &f.IDPago,
		&f.Fecha, &f.IDUsuario, &f.CreatedAt)
}

// CreateTx inserts an entry on q and reads it back into f.
func (r *FinanceRepo) CreateTx(ctx context.Context, q DBTX, f *model.FinanceEntry) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO finanzas (tipo, monto, descripcion, id_categoria, id_reserva, id_pago, fecha, id_usuario)
		 VALUES (?,?,?,?,?,?,?,?)`,
		f.Tipo, f.Monto, f.Descripcion, f.IDCategoria, f.IDReserva, f.IDPago, f.Fecha, f.IDUsuario)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanFinance(q.QueryRowContext(ctx, financeSelect+" WHERE id = ?", id), f)
}

// FinanceFilter narrows entry listings.  Desde/Hasta are inclusive dates.
type FinanceFilter struct {
	Tipo        string
	IDCategoria *uint64
	Desde       string
	Hasta       string
	Limit       int
	Offset      int
}

func (f FinanceFilter) where() (string, []any) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.Tipo != "" {
		where = append(where, "tipo = ?")
		args = append(args, f.Tipo)
	}
	if f.IDCategoria != nil {
		where = append(where, "id_categoria = ?")
		args = append(args, *f.IDCategoria)
	}
	if f.Desde != "" {
		where = append(where, "fecha >= ?")
		args = append(args, f.Desde)
	}
	if f.Hasta != "" {
		where = append(where, "fecha <= ?")
		args = append(args, f.Hasta)
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns entries newest first.
func (r *FinanceRepo) List(ctx context.Context, f FinanceFilter) ([]model.FinanceEntry, error) {
	where, args := f.where()
	q, args := paginate(financeSelect+where+" ORDER BY fecha DESC, id DESC", args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.FinanceEntry{}
	for rows.Next() {
		var e model.FinanceEntry
		if err := scanFinance(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthlySummary totals income and expenses per month, oldest first.
func (r *FinanceRepo) MonthlySummary(ctx context.Context, f FinanceFilter) ([]model.FinanceSummary, error) {
	where, args := f.where()
	rows, err := r.db.QueryContext(ctx, `
SELECT DATE_FORMAT(fecha, '%Y-%m') AS mes,
       COALESCE(SUM(CASE WHEN tipo = 'ingreso' THEN monto ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN tipo = 'gasto' THEN monto ELSE 0 END), 0)
FROM finanzas`+where+`
GROUP BY mes ORDER BY mes`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.FinanceSummary{}
	for rows.Next() {
		var s model.FinanceSummary
		if err := rows.Scan(&s.Mes, &s.Ingresos, &s.Gastos); err != nil {
			return nil, err
		}
		s.Balance = s.Ingresos.Sub(s.Gastos)
		out = append(out, s)
	}
	return out, rows.Err()
}
