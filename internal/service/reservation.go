package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

// maxCodeAttempts bounds retries when a random tracking code collides.
const maxCodeAttempts = 5

// Reservations books, edits and cancels reservations.  Every write that
// can claim a range takes the date lock and re-checks availability inside
// its transaction.
type Reservations struct {
	repo    *repository.ReservationRepo
	avail   *Availability
	catalog Catalog
	locker  lock.Locker
	events  EventPublisher
	now     func() time.Time
}

func NewReservations(repo *repository.ReservationRepo, avail *Availability, catalog Catalog, locker lock.Locker, events EventPublisher) *Reservations {
	return &Reservations{repo: repo, avail: avail, catalog: catalog, locker: locker, events: events, now: time.Now}
}

// Create books a reservation directly in estado pendiente.
func (s *Reservations) Create(ctx context.Context, actor Actor, req model.BookingRequest) (model.Reservation, error) {
	d := req.EventDetails
	w, err := resolveEvent(&d)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := notPast(d.FechaReserva, s.now()); err != nil {
		return model.Reservation{}, err
	}

	var res model.Reservation
	err = withDateLock(ctx, s.locker, d.FechaReserva, func() error {
		tx, err := s.repo.DB().BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		conflicts, err := s.avail.ConflictsTx(ctx, tx, d.FechaReserva, w.Interval, repository.Exclusions{})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrSlotUnavailable
		}
		priced, err := s.catalog.Price(ctx, tx, d, req.Extras)
		if err != nil {
			return err
		}

		for attempt := 1; ; attempt++ {
			code, err := utils.NewTrackingCode(utils.ReservationPrefix, s.now())
			if err != nil {
				return err
			}
			res = model.Reservation{
				IDUsuario:         actor.ID,
				CodigoSeguimiento: code,
				EventDetails:      d,
				Total:             priced.Total,
				Estado:            model.ReservationPending,
				Extras:            priced.Extras,
			}
			err = s.repo.CreateTx(ctx, tx, &res)
			if err == nil {
				break
			}
			// a failed INSERT leaves the MySQL transaction usable
			if !errors.Is(err, repository.ErrDuplicate) || attempt == maxCodeAttempts {
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.announce(res, "reserva")
	return res, nil
}

// Get returns a reservation visible to actor.  Clients only see their own;
// others are reported as not found.
func (s *Reservations) Get(ctx context.Context, actor Actor, id uint64) (model.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return res, err
	}
	if !actor.owns(res.IDUsuario) {
		return model.Reservation{}, repository.ErrNotFound
	}
	return res, nil
}

// List returns active reservations; clients are restricted to their own.
func (s *Reservations) List(ctx context.Context, actor Actor, f model.ReservationFilter) ([]model.Reservation, error) {
	if !actor.IsAdmin() {
		id := actor.ID
		f.IDUsuario = &id
	}
	return s.repo.List(ctx, f)
}

// Update rewrites the event fields and extras of a reservation.  Clients
// may only edit their own pending reservations.  The new range is checked
// against every other live record.
func (s *Reservations) Update(ctx context.Context, actor Actor, id uint64, req model.BookingRequest) (model.Reservation, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return current, err
	}
	if !current.Activo || current.Estado == model.ReservationCancelled {
		return model.Reservation{}, ErrInvalidState
	}
	if !actor.IsAdmin() && current.Estado != model.ReservationPending {
		return model.Reservation{}, repository.ErrForbidden
	}
	d := req.EventDetails
	w, err := resolveEvent(&d)
	if err != nil {
		return model.Reservation{}, err
	}
	if d.FechaReserva != current.FechaReserva {
		if err := notPast(d.FechaReserva, s.now()); err != nil {
			return model.Reservation{}, err
		}
	}

	var out model.Reservation
	err = withDateLock(ctx, s.locker, d.FechaReserva, func() error {
		tx, err := s.repo.DB().BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()
		conflicts, err := s.avail.ConflictsTx(ctx, tx, d.FechaReserva, w.Interval, repository.Exclusions{ReservationID: id})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrSlotUnavailable
		}
		priced, err := s.catalog.Price(ctx, tx, d, req.Extras)
		if err != nil {
			return err
		}
		upd := current
		upd.EventDetails = d
		upd.Total = priced.Total
		upd.Extras = priced.Extras
		if err := s.repo.UpdateDetailsTx(ctx, tx, &upd); err != nil {
			return err
		}
		if out, err = s.repo.GetTx(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
	return out, err
}

// SetStatus moves a reservation between pendiente, confirmada and
// cancelada.  Re-opening a cancelled reservation re-checks its range.
func (s *Reservations) SetStatus(ctx context.Context, id uint64, estado string) (model.Reservation, error) {
	switch estado {
	case model.ReservationPending, model.ReservationConfirmed, model.ReservationCancelled:
	default:
		return model.Reservation{}, fmt.Errorf("%w: estado %q", ErrInvalidInput, estado)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return current, err
	}
	if !current.Activo {
		return model.Reservation{}, repository.ErrNotFound
	}
	if current.Estado == model.ReservationCancelled && estado != model.ReservationCancelled {
		w, err := resolveEvent(&current.EventDetails)
		if err != nil {
			return model.Reservation{}, err
		}
		err = withDateLock(ctx, s.locker, current.FechaReserva, func() error {
			conflicts, err := s.avail.ConflictsTx(ctx, s.repo.DB(), current.FechaReserva, w.Interval, repository.Exclusions{ReservationID: id})
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return ErrSlotUnavailable
			}
			return s.repo.UpdateStatus(ctx, id, estado)
		})
		if err != nil {
			return model.Reservation{}, err
		}
	} else if err := s.repo.UpdateStatus(ctx, id, estado); err != nil {
		return model.Reservation{}, err
	}
	current.Estado = estado
	if estado == model.ReservationConfirmed {
		s.announceConfirmed(current, "reserva")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete soft-deletes a reservation.  Clients may only delete their own
// pending reservations.
func (s *Reservations) Delete(ctx context.Context, actor Actor, id uint64) error {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && current.Estado != model.ReservationPending {
		return repository.ErrForbidden
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *Reservations) announce(res model.Reservation, origen string) {
	ev := reservationEvent(res, origen, s.now())
	publish(func(ctx context.Context) error {
		if err := s.events.ReservationCreated(ctx, ev); err != nil {
			slog.Warn("publish reserva.creada failed", "id_reserva", ev.IDReserva, "error", err)
			return err
		}
		return nil
	})
}

func (s *Reservations) announceConfirmed(res model.Reservation, origen string) {
	ev := reservationEvent(res, origen, s.now())
	publish(func(ctx context.Context) error {
		if err := s.events.ReservationConfirmed(ctx, ev); err != nil {
			slog.Warn("publish reserva.confirmada failed", "id_reserva", ev.IDReserva, "error", err)
			return err
		}
		return nil
	})
}
