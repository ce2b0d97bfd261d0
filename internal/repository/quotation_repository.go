package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// QuotationRepo persists quotations and their extras.
type QuotationRepo struct{ db *sql.DB }

func NewQuotationRepo(db *sql.DB) *QuotationRepo { return &QuotationRepo{db: db} }

// DB exposes the underlying handle so workflows can open transactions.
func (r *QuotationRepo) DB() *sql.DB { return r.db }

const quotationSelect = "SELECT id, id_usuario, codigo, " + eventSelectCols +
	", total, estado, id_reserva, fecha_creacion, fecha_expiracion FROM cotizaciones"

func scanQuotation(s rowScanner, q *model.Quotation) error {
	dest := []any{&q.ID, &q.IDUsuario, &q.Codigo}
	dest = append(dest, eventDest(&q.EventDetails)...)
	dest = append(dest, &q.Total, &q.Estado, &q.IDReserva, &q.FechaCreacion, &q.FechaExpiracion)
	return s.Scan(dest...)
}

// CreateTx inserts the quotation header and its extras.  Creation and
// expiry instants are taken from q as computed by the caller.  A taken
// code yields ErrDuplicate so the caller can retry with a new one.
func (r *QuotationRepo) CreateTx(ctx context.Context, tx *sql.Tx, q *model.Quotation) error {
	args := []any{q.IDUsuario, q.Codigo}
	args = append(args, eventArgs(&q.EventDetails)...)
	args = append(args, q.Total, q.Estado, q.FechaCreacion, q.FechaExpiracion)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO cotizaciones (id_usuario, codigo, "+eventInsertCols+", total, estado, fecha_creacion, fecha_expiracion) VALUES (?,?,"+eventPlaceholders+",?,?,?,?)",
		args...)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	return insertExtras(ctx, tx, "cotizacion_extras", "id_cotizacion", q.ID, q.Extras)
}

// GetByID loads a quotation with its extras.
func (r *QuotationRepo) GetByID(ctx context.Context, id uint64) (model.Quotation, error) {
	return r.get(ctx, r.db, " WHERE id = ?", id)
}

// GetByCode loads a quotation by its COT code.
func (r *QuotationRepo) GetByCode(ctx context.Context, code string) (model.Quotation, error) {
	return r.get(ctx, r.db, " WHERE codigo = ?", strings.ToUpper(strings.TrimSpace(code)))
}

// GetForUpdateTx locks the quotation row until tx ends.
func (r *QuotationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Quotation, error) {
	return r.get(ctx, tx, " WHERE id = ? FOR UPDATE", id)
}

func (r *QuotationRepo) get(ctx context.Context, q DBTX, where string, arg any) (model.Quotation, error) {
	var out model.Quotation
	if err := scanQuotation(q.QueryRowContext(ctx, quotationSelect+where, arg), &out); err != nil {
		return out, translate(err)
	}
	extras, err := loadExtras(ctx, q, "cotizacion_extras", "id_cotizacion", []uint64{out.ID})
	if err != nil {
		return out, err
	}
	out.Extras = nonNilExtras(extras[out.ID])
	return out, nil
}

// List returns quotations, newest first.  userID nil lists everybody's.
func (r *QuotationRepo) List(ctx context.Context, userID *uint64, estado string, limit, offset int) ([]model.Quotation, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if userID != nil {
		where = append(where, "id_usuario = ?")
		args = append(args, *userID)
	}
	if estado != "" {
		where = append(where, "estado = ?")
		args = append(args, estado)
	}
	q := quotationSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY fecha_creacion DESC"
	q, args = paginate(q, args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Quotation{}
	ids := []uint64{}
	for rows.Next() {
		var qt model.Quotation
		if err := scanQuotation(rows, &qt); err != nil {
			return nil, err
		}
		out = append(out, qt)
		ids = append(ids, qt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	extras, err := loadExtras(ctx, r.db, "cotizacion_extras", "id_cotizacion", ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Extras = nonNilExtras(extras[out[i].ID])
	}
	return out, nil
}

// MarkConvertedTx records the reservation created from the quotation.  The
// estado guard makes a concurrent second conversion affect zero rows.
func (r *QuotationRepo) MarkConvertedTx(ctx context.Context, tx *sql.Tx, id, reservationID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE cotizaciones SET estado = 'convertida', id_reserva = ? WHERE id = ? AND estado = 'creada'",
		reservationID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkExpiredTx flags a single open quotation as expired.
func (r *QuotationRepo) MarkExpiredTx(ctx context.Context, q DBTX, id uint64) error {
	_, err := q.ExecContext(ctx,
		"UPDATE cotizaciones SET estado = 'expirada' WHERE id = ? AND estado = 'creada'", id)
	return err
}

// ExpireDue flags every open quotation whose expiry is not after now and
// returns how many changed.
func (r *QuotationRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cotizaciones SET estado = 'expirada' WHERE estado = 'creada' AND fecha_expiracion <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
