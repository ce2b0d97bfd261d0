package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

func TestCreateReservationRejectsTakenSlot(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("UNION ALL").
		WithArgs("2026-06-10", uint64(0), "2026-06-10", "").
		WillReturnRows(sqlmock.NewRows(busyCols).AddRow("reserva", "3", "11:00", "15:00"))
	f.mock.ExpectRollback()

	req := model.BookingRequest{EventDetails: model.EventDetails{
		IDPaquete: 1, FechaReserva: "2026-06-10", HoraInicio: "12:00", NombreFestejado: "Leo",
	}}
	_, err := f.reservations.Create(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateReservationRejectsPastDate(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	req := model.BookingRequest{EventDetails: model.EventDetails{
		IDPaquete: 1, FechaReserva: "2026-04-30", Horario: "tarde", NombreFestejado: "Leo",
	}}
	_, err := f.reservations.Create(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateReservationRejectsBadSlot(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	req := model.BookingRequest{EventDetails: model.EventDetails{
		IDPaquete: 1, FechaReserva: "2026-06-10", Horario: "noche",
	}}
	_, err := f.reservations.Create(context.Background(), Actor{ID: 7, Role: model.RoleCliente}, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAvailabilityMorningBookingLeavesAfternoonFree(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	f.mock.ExpectQuery("UNION ALL").
		WillReturnRows(sqlmock.NewRows(busyCols).AddRow("reserva", "3", "11:00", "15:00"))

	out, err := f.avail.Check(context.Background(), AvailabilityQuery{Fecha: "2026-06-10", Horario: "tarde"})
	require.NoError(t, err)
	assert.True(t, out.Disponible)
	assert.Empty(t, out.Conflictos)
	assert.Equal(t, "17:00", out.HoraInicio)
	require.Len(t, out.Horarios, 2)
	assert.False(t, out.Horarios[0].Disponible)
	assert.True(t, out.Horarios[1].Disponible)
	assert.Nil(t, out.InventarioSuficiente)
}

func TestAvailabilityTouchingRangesDoNotConflict(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	f.mock.ExpectQuery("UNION ALL").
		WillReturnRows(sqlmock.NewRows(busyCols).AddRow("pre_reserva", "abc", "11:00", "15:00"))

	out, err := f.avail.Check(context.Background(), AvailabilityQuery{Fecha: "2026-06-10", HoraInicio: "15:00", HoraFin: "17:00"})
	require.NoError(t, err)
	assert.True(t, out.Disponible)

	f.mock.ExpectQuery("UNION ALL").
		WillReturnRows(sqlmock.NewRows(busyCols).AddRow("pre_reserva", "abc", "11:00", "15:00"))
	out, err = f.avail.Check(context.Background(), AvailabilityQuery{Fecha: "2026-06-10", HoraInicio: "14:59", HoraFin: "17:00"})
	require.NoError(t, err)
	assert.False(t, out.Disponible)
	require.Len(t, out.Conflictos, 1)
	assert.Equal(t, "pre_reserva", out.Conflictos[0].Fuente)
}

func TestAvailabilityStockCheck(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	now := time.Now()

	f.mock.ExpectQuery("UNION ALL").WillReturnRows(sqlmock.NewRows(busyCols))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM opciones_alimento WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(foodCols).AddRow(2, "Pizza", nil, "50.00", "30.00", 9, "0.5", true, now, now))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM materias_primas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(materialCols).AddRow(9, "Harina", "kg", "10", "1", nil, nil, nil, true, now, now))

	out, err := f.avail.Check(context.Background(), AvailabilityQuery{
		Fecha: "2026-06-10", IDOpcionAlimento: u64(2), NumeroAdultos: 10, NumeroNinos: 15, CheckStock: true,
	})
	require.NoError(t, err)
	require.NotNil(t, out.InventarioSuficiente)
	// 25 guests * 0.5 = 12.5 > 10
	assert.False(t, *out.InventarioSuficiente)
}

func TestBlockedDatesNeedsBothSlots(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	f.mock.ExpectQuery("BETWEEN").
		WithArgs("2026-06-01", "2026-06-30").
		WillReturnRows(sqlmock.NewRows([]string{"fecha", "hora_inicio", "hora_fin"}).
			AddRow("2026-06-10", "11:00", "15:00").
			AddRow("2026-06-10", "17:00", "21:00").
			AddRow("2026-06-11", "11:00", "15:00"))

	dates, err := f.avail.BlockedDates(context.Background(), "2026-06-01", "2026-06-30")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-06-10"}, dates)

	_, err = f.avail.BlockedDates(context.Background(), "2026-06-30", "2026-06-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
