package service

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
)

var (
	preCols     = []string{"id", "id_usuario", "codigo_seguimiento", "fecha_reserva", "hora_inicio", "hora_fin", "datos", "total", "estado", "expira_en", "id_reserva", "fecha_creacion"}
	financeCols = []string{"id", "tipo", "monto", "descripcion", "id_categoria", "id_reserva", "id_pago", "fecha", "id_usuario", "fecha_creacion"}
)

const heldDatos = `{"id_paquete":1,"fecha_reserva":"2026-06-10","hora_inicio":"11:00","hora_fin":"15:00","horario":"manana","nombre_festejado":"Sofía","numero_adultos":10,"numero_ninos":15,"extras":[]}`

func paymentRow(estado string, ref any, at time.Time) []driver.Value {
	return []driver.Value{31, 7, nil, "pre-1", "tarjeta", "1000.00", "mxn", estado, ref, nil, at, at}
}

func preRow(estado string, expira, at time.Time) []driver.Value {
	return []driver.Value{"pre-1", 7, "RES-260501-12345", "2026-06-10", "11:00", "15:00", []byte(heldDatos), "1000.00", estado, expira, nil, at}
}

func TestInitiateRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	_, err := f.payments.Initiate(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, InitiateRequest{
		BookingRequest: model.BookingRequest{EventDetails: model.EventDetails{IDPaquete: 1, FechaReserva: "2026-06-10", Horario: "manana"}},
		MetodoPago:     "bitcoin",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestInitiateHoldsSlotAndOpensCharge(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM reservas WHERE codigo_seguimiento = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(true))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM reservas WHERE codigo_seguimiento = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	f.mock.ExpectQuery("UNION ALL").WillReturnRows(sqlmock.NewRows(busyCols))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM paquetes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(packageCols).AddRow(1, "Básico", nil, "1000.00", 50, true, now, now))
	f.mock.ExpectExec("INSERT INTO pre_reservas").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO pagos").WillReturnResult(sqlmock.NewResult(31, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE pagos SET referencia_externa = ?")).
		WithArgs(sqlmock.AnyArg(), uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := f.payments.Initiate(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, InitiateRequest{
		BookingRequest: model.BookingRequest{EventDetails: model.EventDetails{IDPaquete: 1, FechaReserva: "2026-06-10", Horario: "mañana"}},
		MetodoPago:     "Tarjeta de Crédito",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(31), out.Pago.ID)
	assert.Equal(t, "tarjeta", out.Pago.MetodoPago)
	assert.Equal(t, "mxn", out.Pago.Moneda)
	assert.Equal(t, model.PreReservationAwaitingPayment, out.PreReserva.Estado)
	assert.Equal(t, now.Add(30*time.Minute), out.PreReserva.ExpiraEn)
	assert.True(t, strings.HasPrefix(out.Cargo.Reference, "OFF-"))
	require.NotNil(t, out.Pago.ReferenciaExterna)

	var held heldBooking
	require.NoError(t, json.Unmarshal(out.PreReserva.Datos, &held))
	assert.Equal(t, "11:00", held.HoraInicio)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestInitiateRejectsCodeAlreadyReserved(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM reservas WHERE codigo_seguimiento = ?")).
		WithArgs("RES-260501-54321").
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(true))
	f.mock.ExpectRollback()

	_, err := f.payments.Initiate(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, InitiateRequest{
		BookingRequest:    model.BookingRequest{EventDetails: model.EventDetails{IDPaquete: 1, FechaReserva: "2026-06-10", Horario: "manana"}},
		MetodoPago:        "tarjeta",
		CodigoSeguimiento: "res-260501-54321",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmCompletedPaymentIsInvalidState(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentCompleted, "OFF-1", now)...))

	_, err := f.payments.Confirm(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, ConfirmRequest{IDPago: 31})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmExpiredHoldIsInvalidState(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, now, now.Add(-30*time.Minute))...))

	_, err := f.payments.Confirm(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, ConfirmRequest{IDPago: 31})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmUnverifiedChargeIsRejected(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "pi_123", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, now.Add(time.Minute), now)...))

	_, err := f.payments.Confirm(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, ConfirmRequest{IDPago: 31})
	assert.ErrorIs(t, err, ErrPaymentNotVerified)
}

func TestConfirmCreatesConfirmedReservation(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	expira := now.Add(10 * time.Minute)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, expira, now)...))
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, expira, now)...))
	f.mock.ExpectQuery("UNION ALL").
		WithArgs("2026-06-10", uint64(0), "2026-06-10", "pre-1").
		WillReturnRows(sqlmock.NewRows(busyCols))
	f.mock.ExpectExec("INSERT INTO reservas").WillReturnResult(sqlmock.NewResult(50, 1))
	resRow := append(append([]driver.Value{50, 7, "RES-260501-12345"}, morningEvent()...), "1000.00", "confirmada", true, now, now)
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(resRow...))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE pagos SET estado = 'completado'")).
		WithArgs(uint64(50), sqlmock.AnyArg(), uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE pre_reservas SET estado = 'finalizada'")).
		WithArgs(uint64(50), "pre-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO finanzas").WillReturnResult(sqlmock.NewResult(5, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM finanzas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(financeCols).AddRow(5, "ingreso", "1000.00", "Pago", nil, 50, 31, "2026-05-01", 7, now))
	f.mock.ExpectCommit()

	out, err := f.payments.Confirm(context.Background(), Actor{ID: 7, Role: model.RoleCliente},
		ConfirmRequest{IDPago: 31, DatosConfirmacion: json.RawMessage(`{"ok":true}`)})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, out.Reserva.Estado)
	assert.Equal(t, "RES-260501-12345", out.Reserva.CodigoSeguimiento)
	assert.Equal(t, model.PaymentCompleted, out.Pago.Estado)
	require.NotNil(t, out.Pago.IDReserva)
	assert.Equal(t, uint64(50), *out.Pago.IDReserva)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmReissuesTakenTrackingCode(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	expira := now.Add(10 * time.Minute)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, expira, now)...))
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pre_reservas WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(preCols).AddRow(preRow(model.PreReservationAwaitingPayment, expira, now)...))
	f.mock.ExpectQuery("UNION ALL").WillReturnRows(sqlmock.NewRows(busyCols))
	f.mock.ExpectExec("INSERT INTO reservas").
		WithArgs(append([]driver.Value{sqlmock.AnyArg(), "RES-260501-12345"}, anyArgs(16)...)...).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'RES-260501-12345'"})
	f.mock.ExpectExec("INSERT INTO reservas").
		WithArgs(append([]driver.Value{sqlmock.AnyArg(), codeOtherThan("RES-260501-12345")}, anyArgs(16)...)...).
		WillReturnResult(sqlmock.NewResult(50, 1))
	resRow := append(append([]driver.Value{50, 7, "RES-260501-67890"}, morningEvent()...), "1000.00", "confirmada", true, now, now)
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(resRow...))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE pagos SET estado = 'completado'")).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE pre_reservas SET estado = 'finalizada'")).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO finanzas").WillReturnResult(sqlmock.NewResult(5, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM finanzas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(financeCols).AddRow(5, "ingreso", "1000.00", "Pago", nil, 50, 31, "2026-05-01", 7, now))
	f.mock.ExpectCommit()

	out, err := f.payments.Confirm(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, ConfirmRequest{IDPago: 31})
	require.NoError(t, err)
	assert.Equal(t, uint64(50), out.Reserva.ID)
	assert.Equal(t, model.PaymentCompleted, out.Pago.Estado)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// codeOtherThan matches a fresh RES tracking code.
type codeOtherThan string

func (c codeOtherThan) Match(v driver.Value) bool {
	code, ok := v.(string)
	return ok && code != string(c) && strings.HasPrefix(code, "RES-260501-")
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestCancelOtherUsersPaymentIsHidden(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM pagos WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(paymentRow(model.PaymentPending, "OFF-1", now)...))

	_, err := f.payments.Cancel(context.Background(), Actor{ID: 8, Role: model.RoleCliente}, 31)
	assert.Error(t, err)
}
