package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// PaymentRepo persists payments and the pre-reservations (pay-first holds)
// they settle.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle so workflows can open transactions.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentSelect = `SELECT id, id_usuario, id_reserva, id_pre_reserva, metodo_pago, monto, moneda, estado,
referencia_externa, datos_confirmacion, fecha_creacion, fecha_actualizacion FROM pagos`

const preReservationSelect = `SELECT id, id_usuario, codigo_seguimiento, DATE_FORMAT(fecha_reserva, '%Y-%m-%d'),
TIME_FORMAT(hora_inicio, '%H:%i'), TIME_FORMAT(hora_fin, '%H:%i'), datos, total, estado, expira_en, id_reserva, fecha_creacion
FROM pre_reservas`

func scanPayment(s rowScanner, p *model.Payment) error {
	var datos []byte
	if err := s.Scan(&p.ID, &p.IDUsuario, &p.IDReserva, &p.IDPreReserva, &p.MetodoPago, &p.Monto, &p.Moneda, &p.Estado,
		&p.ReferenciaExterna, &datos, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if len(datos) > 0 {
		p.DatosConfirmacion = json.RawMessage(datos)
	}
	return nil
}

func scanPreReservation(s rowScanner, p *model.PreReservation) error {
	var datos []byte
	if err := s.Scan(&p.ID, &p.IDUsuario, &p.CodigoSeguimiento, &p.FechaReserva, &p.HoraInicio, &p.HoraFin,
		&datos, &p.Total, &p.Estado, &p.ExpiraEn, &p.IDReserva, &p.CreatedAt); err != nil {
		return err
	}
	p.Datos = json.RawMessage(datos)
	return nil
}

// CreatePreReservationTx inserts a hold.  The id is generated by the caller.
func (r *PaymentRepo) CreatePreReservationTx(ctx context.Context, tx *sql.Tx, p *model.PreReservation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO pre_reservas (id, id_usuario, codigo_seguimiento, fecha_reserva, hora_inicio, hora_fin, datos, total, estado, expira_en)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.IDUsuario, p.CodigoSeguimiento, p.FechaReserva, p.HoraInicio, p.HoraFin, string(p.Datos), p.Total, p.Estado, p.ExpiraEn)
	return translate(err)
}

// CreatePaymentTx inserts a payment and stores the generated id in p.
func (r *PaymentRepo) CreatePaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO pagos (id_usuario, id_reserva, id_pre_reserva, metodo_pago, monto, moneda, estado)
		 VALUES (?,?,?,?,?,?,?)`,
		p.IDUsuario, p.IDReserva, p.IDPreReserva, p.MetodoPago, p.Monto, p.Moneda, p.Estado)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// SetReference stores the gateway reference of a payment.
func (r *PaymentRepo) SetReference(ctx context.Context, id uint64, ref string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE pagos SET referencia_externa = ? WHERE id = ?", ref, id)
	return err
}

// GetPayment loads a payment by id.
func (r *PaymentRepo) GetPayment(ctx context.Context, id uint64) (model.Payment, error) {
	var p model.Payment
	err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+" WHERE id = ?", id), &p)
	return p, translate(err)
}

// GetPaymentForUpdateTx locks a payment row until tx ends.
func (r *PaymentRepo) GetPaymentForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Payment, error) {
	var p model.Payment
	err := scanPayment(tx.QueryRowContext(ctx, paymentSelect+" WHERE id = ? FOR UPDATE", id), &p)
	return p, translate(err)
}

// LatestPaymentForPreReservation returns the newest payment of a hold.
func (r *PaymentRepo) LatestPaymentForPreReservation(ctx context.Context, preID string) (model.Payment, error) {
	var p model.Payment
	err := scanPayment(r.db.QueryRowContext(ctx,
		paymentSelect+" WHERE id_pre_reserva = ? ORDER BY id DESC LIMIT 1", preID), &p)
	return p, translate(err)
}

// GetPreReservation loads a hold by id.
func (r *PaymentRepo) GetPreReservation(ctx context.Context, id string) (model.PreReservation, error) {
	var p model.PreReservation
	err := scanPreReservation(r.db.QueryRowContext(ctx, preReservationSelect+" WHERE id = ?", id), &p)
	return p, translate(err)
}

// GetPreReservationForUpdateTx locks a hold row until tx ends.
func (r *PaymentRepo) GetPreReservationForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.PreReservation, error) {
	var p model.PreReservation
	err := scanPreReservation(tx.QueryRowContext(ctx, preReservationSelect+" WHERE id = ? FOR UPDATE", id), &p)
	return p, translate(err)
}

// CompletePaymentTx settles a payment against the reservation it created.
func (r *PaymentRepo) CompletePaymentTx(ctx context.Context, tx *sql.Tx, id, reservationID uint64, datos json.RawMessage) error {
	var payload any
	if len(datos) > 0 {
		payload = string(datos)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE pagos SET estado = 'completado', id_reserva = ?, datos_confirmacion = ? WHERE id = ? AND estado = 'pendiente'",
		reservationID, payload, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// FinalizePreReservationTx closes a hold once its reservation exists.
func (r *PaymentRepo) FinalizePreReservationTx(ctx context.Context, tx *sql.Tx, id string, reservationID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE pre_reservas SET estado = 'finalizada', id_reserva = ? WHERE id = ? AND estado = 'pendiente_pago'",
		reservationID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// CancelTx cancels a pending payment and releases its hold.
func (r *PaymentRepo) CancelTx(ctx context.Context, tx *sql.Tx, paymentID uint64, preID *string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE pagos SET estado = 'cancelado' WHERE id = ? AND estado = 'pendiente'", paymentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	if preID == nil {
		return nil
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE pre_reservas SET estado = 'cancelada' WHERE id = ? AND estado = 'pendiente_pago'", *preID)
	return err
}

// ExpireHolds closes holds past their window and cancels their pending
// payments.  It returns the number of holds expired.
func (r *PaymentRepo) ExpireHolds(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pre_reservas SET estado = 'expirada' WHERE estado = 'pendiente_pago' AND expira_en <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if _, err := r.db.ExecContext(ctx,
		`UPDATE pagos p JOIN pre_reservas pr ON pr.id = p.id_pre_reserva
		 SET p.estado = 'cancelado' WHERE p.estado = 'pendiente' AND pr.estado = 'expirada'`); err != nil {
		return n, err
	}
	return n, nil
}

// ListPayments returns payments newest first.
func (r *PaymentRepo) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.IDUsuario != nil {
		where = append(where, "id_usuario = ?")
		args = append(args, *f.IDUsuario)
	}
	if f.Estado != "" {
		where = append(where, "estado = ?")
		args = append(args, f.Estado)
	}
	if f.Metodo != "" {
		where = append(where, "metodo_pago = ?")
		args = append(args, f.Metodo)
	}
	q := paymentSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY id DESC"
	q, args = paginate(q, args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
