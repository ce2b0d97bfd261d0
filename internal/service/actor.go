package service

import (
	"context"
	"time"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/queue"
)

// Actor is the authenticated caller of a workflow.
type Actor struct {
	ID   uint64
	Role string
}

// IsAdmin reports whether the actor may act on other users' records.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// owns reports whether the actor may see a record owned by userID.
func (a Actor) owns(userID uint64) bool { return a.IsAdmin() || a.ID == userID }

// EventPublisher receives domain events after commit.  Failures are
// logged by the implementation and never fail the workflow.
type EventPublisher interface {
	ReservationCreated(ctx context.Context, ev queue.ReservationEvent) error
	ReservationConfirmed(ctx context.Context, ev queue.ReservationEvent) error
	InventoryAlert(ctx context.Context, ev queue.AlertEvent) error
}

// lockTTL bounds how long a crashed node can keep a date locked.
const lockTTL = 15 * time.Second

// withDateLock runs fn while holding the booking lock of fecha.
func withDateLock(ctx context.Context, l lock.Locker, fecha string, fn func() error) error {
	release, err := l.Acquire(ctx, lock.DateKey(fecha), lockTTL)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func reservationEvent(r model.Reservation, origen string, at time.Time) queue.ReservationEvent {
	return queue.ReservationEvent{
		IDReserva:         r.ID,
		IDUsuario:         r.IDUsuario,
		CodigoSeguimiento: r.CodigoSeguimiento,
		FechaReserva:      r.FechaReserva,
		HoraInicio:        r.HoraInicio,
		HoraFin:           r.HoraFin,
		NombreFestejado:   r.NombreFestejado,
		Total:             r.Total.StringFixed(2),
		Estado:            r.Estado,
		Origen:            origen,
		OcurridoEn:        at.UTC().Format(time.RFC3339),
	}
}

// publish runs fire-and-forget publishes detached from the request context
// so a finished request does not cancel them.
func publish(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = fn(ctx)
	}()
}
