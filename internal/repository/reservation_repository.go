package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and their extras.
// Reservations are never hard-deleted; the extras of a reservation go away
// with it through ON DELETE CASCADE.  Multi-statement writes take a
// caller-owned transaction.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so workflows can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationSelect = "SELECT id, id_usuario, codigo_seguimiento, " + eventSelectCols +
	", total, estado, activo, fecha_creacion, fecha_actualizacion FROM reservas"

func scanReservation(s rowScanner, res *model.Reservation) error {
	dest := []any{&res.ID, &res.IDUsuario, &res.CodigoSeguimiento}
	dest = append(dest, eventDest(&res.EventDetails)...)
	dest = append(dest, &res.Total, &res.Estado, &res.Activo, &res.CreatedAt, &res.UpdatedAt)
	return s.Scan(dest...)
}

// CreateTx inserts a reservation and its extras within tx, then reads the
// row back to populate id, defaults and timestamps.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	args := []any{res.IDUsuario, res.CodigoSeguimiento}
	args = append(args, eventArgs(&res.EventDetails)...)
	args = append(args, res.Total, res.Estado)
	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservas (id_usuario, codigo_seguimiento, "+eventInsertCols+", total, estado) VALUES (?,?,"+eventPlaceholders+",?,?)",
		args...)
	if err != nil {
		return translate(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertExtras(ctx, tx, "reserva_extras", "id_reserva", uint64(id), res.Extras); err != nil {
		return translate(err)
	}
	extras := res.Extras
	if err := scanReservation(tx.QueryRowContext(ctx, reservationSelect+" WHERE id = ?", id), res); err != nil {
		return err
	}
	res.Extras = extras
	return nil
}

// CodeTakenTx reports whether a reservation already carries code.
func (r *ReservationRepo) CodeTakenTx(ctx context.Context, q DBTX, code string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM reservas WHERE codigo_seguimiento = ?)", code).Scan(&taken)
	return taken, err
}

// GetByID loads a reservation with its extras, whatever its activo flag.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return r.GetTx(ctx, r.db, id)
}

// GetTx is GetByID on a caller-supplied handle.
func (r *ReservationRepo) GetTx(ctx context.Context, q DBTX, id uint64) (model.Reservation, error) {
	var res model.Reservation
	if err := scanReservation(q.QueryRowContext(ctx, reservationSelect+" WHERE id = ?", id), &res); err != nil {
		return res, translate(err)
	}
	extras, err := loadExtras(ctx, q, "reserva_extras", "id_reserva", []uint64{id})
	if err != nil {
		return res, err
	}
	res.Extras = nonNilExtras(extras[id])
	return res, nil
}

// GetByCode loads a reservation by tracking code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (model.Reservation, error) {
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+" WHERE codigo_seguimiento = ?", code), &res); err != nil {
		return res, translate(err)
	}
	extras, err := loadExtras(ctx, r.db, "reserva_extras", "id_reserva", []uint64{res.ID})
	if err != nil {
		return res, err
	}
	res.Extras = nonNilExtras(extras[res.ID])
	return res, nil
}

// List returns active reservations matching f ordered by date and start.
func (r *ReservationRepo) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	where := []string{"activo = 1"}
	args := []any{}
	if f.IDUsuario != nil {
		where = append(where, "id_usuario = ?")
		args = append(args, *f.IDUsuario)
	}
	if f.Fecha != "" {
		where = append(where, "fecha_reserva = ?")
		args = append(args, f.Fecha)
	}
	if f.Desde != "" {
		where = append(where, "fecha_reserva >= ?")
		args = append(args, f.Desde)
	}
	if f.Hasta != "" {
		where = append(where, "fecha_reserva <= ?")
		args = append(args, f.Hasta)
	}
	if f.Estado != "" {
		where = append(where, "estado = ?")
		args = append(args, f.Estado)
	}
	q := reservationSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY fecha_reserva, hora_inicio"
	q, args = paginate(q, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	ids := []uint64{}
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	extras, err := loadExtras(ctx, r.db, "reserva_extras", "id_reserva", ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Extras = nonNilExtras(extras[out[i].ID])
	}
	return out, nil
}

// Busy is a time range that blocks a date: a live reservation or an
// unexpired pay-first hold.
type Busy struct {
	Fuente     string `json:"fuente"`
	ID         string `json:"id"`
	HoraInicio string `json:"hora_inicio"`
	HoraFin    string `json:"hora_fin"`
}

// Exclusions keep a record from conflicting with itself when it is
// re-checked (editing a reservation, confirming its own hold).
type Exclusions struct {
	ReservationID    uint64
	PreReservationID string
}

// BusyOnDateTx lists every range occupied on fecha.  Holds are compared
// against the database clock so all nodes agree on expiry.
func (r *ReservationRepo) BusyOnDateTx(ctx context.Context, q DBTX, fecha string, ex Exclusions) ([]Busy, error) {
	rows, err := q.QueryContext(ctx, `
SELECT 'reserva', CAST(id AS CHAR), TIME_FORMAT(hora_inicio, '%H:%i'), TIME_FORMAT(hora_fin, '%H:%i')
FROM reservas
WHERE fecha_reserva = ? AND activo = 1 AND estado IN ('pendiente','confirmada') AND id <> ?
UNION ALL
SELECT 'pre_reserva', id, TIME_FORMAT(hora_inicio, '%H:%i'), TIME_FORMAT(hora_fin, '%H:%i')
FROM pre_reservas
WHERE fecha_reserva = ? AND estado = 'pendiente_pago' AND expira_en > UTC_TIMESTAMP() AND id <> ?`,
		fecha, ex.ReservationID, fecha, ex.PreReservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Busy{}
	for rows.Next() {
		var b Busy
		if err := rows.Scan(&b.Fuente, &b.ID, &b.HoraInicio, &b.HoraFin); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DatedRange is a busy range on a specific date.
type DatedRange struct {
	Fecha      string
	HoraInicio string
	HoraFin    string
}

// BusyBetween lists live reservation ranges with fecha in [desde, hasta].
func (r *ReservationRepo) BusyBetween(ctx context.Context, desde, hasta string) ([]DatedRange, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DATE_FORMAT(fecha_reserva, '%Y-%m-%d'), TIME_FORMAT(hora_inicio, '%H:%i'), TIME_FORMAT(hora_fin, '%H:%i')
FROM reservas
WHERE fecha_reserva BETWEEN ? AND ? AND activo = 1 AND estado IN ('pendiente','confirmada')
ORDER BY fecha_reserva, hora_inicio`, desde, hasta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DatedRange{}
	for rows.Next() {
		var d DatedRange
		if err := rows.Scan(&d.Fecha, &d.HoraInicio, &d.HoraFin); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDetailsTx rewrites the event fields, total and extras of a
// reservation.
func (r *ReservationRepo) UpdateDetailsTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	sets := strings.Split(eventInsertCols, ", ")
	for i := range sets {
		sets[i] += " = ?"
	}
	args := eventArgs(&res.EventDetails)
	args = append(args, res.Total, res.ID)
	if _, err := tx.ExecContext(ctx,
		"UPDATE reservas SET "+strings.Join(sets, ", ")+", total = ? WHERE id = ?", args...); err != nil {
		return translate(err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reserva_extras WHERE id_reserva = ?", res.ID); err != nil {
		return err
	}
	return insertExtras(ctx, tx, "reserva_extras", "id_reserva", res.ID, res.Extras)
}

// UpdateStatus sets the estado of an active reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, estado string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE reservas SET estado = ? WHERE id = ? AND activo = 1", estado, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rowExists(ctx, r.db, "reservas", id)
	}
	return nil
}

// SoftDelete hides a reservation from listings and frees its range.
func (r *ReservationRepo) SoftDelete(ctx context.Context, id uint64) error {
	if err := rowExists(ctx, r.db, "reservas", id); err != nil {
		return err
	}
	return setActive(ctx, r.db, "reservas", id, false)
}

func nonNilExtras(in []model.LineExtra) []model.LineExtra {
	if in == nil {
		return []model.LineExtra{}
	}
	return in
}

// paginate appends LIMIT/OFFSET when limit is positive.
func paginate(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return q, args
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return q + " LIMIT ? OFFSET ?", append(args, limit, offset)
}
