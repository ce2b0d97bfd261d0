package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

// Quotations creates quotations and converts them into reservations.
type Quotations struct {
	repo         *repository.QuotationRepo
	reservations *repository.ReservationRepo
	avail        *Availability
	catalog      Catalog
	locker       lock.Locker
	events       EventPublisher
	now          func() time.Time
}

func NewQuotations(repo *repository.QuotationRepo, reservations *repository.ReservationRepo, avail *Availability,
	catalog Catalog, locker lock.Locker, events EventPublisher) *Quotations {
	return &Quotations{repo: repo, reservations: reservations, avail: avail, catalog: catalog,
		locker: locker, events: events, now: time.Now}
}

// Create prices and stores a quotation valid for exactly QuotationTTL.
// Creation and expiry are truncated to the second, the precision of the
// DATETIME columns, so the stored pair keeps the exact 48h distance.
func (s *Quotations) Create(ctx context.Context, actor Actor, req model.BookingRequest) (model.Quotation, error) {
	d := req.EventDetails
	if _, err := resolveEvent(&d); err != nil {
		return model.Quotation{}, err
	}
	now := s.now().UTC().Truncate(time.Second)
	if err := notPast(d.FechaReserva, now); err != nil {
		return model.Quotation{}, err
	}
	priced, err := s.catalog.Price(ctx, s.repo.DB(), d, req.Extras)
	if err != nil {
		return model.Quotation{}, err
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Quotation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var q model.Quotation
	for attempt := 1; ; attempt++ {
		code, err := utils.NewTrackingCode(utils.QuotationPrefix, now)
		if err != nil {
			return model.Quotation{}, err
		}
		q = model.Quotation{
			IDUsuario:       actor.ID,
			Codigo:          code,
			EventDetails:    d,
			Total:           priced.Total,
			Estado:          model.QuotationCreated,
			Extras:          priced.Extras,
			FechaCreacion:   now,
			FechaExpiracion: now.Add(model.QuotationTTL),
		}
		err = s.repo.CreateTx(ctx, tx, &q)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == maxCodeAttempts {
			return model.Quotation{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Quotation{}, err
	}
	committed = true
	return q, nil
}

// Get returns a quotation visible to actor.
func (s *Quotations) Get(ctx context.Context, actor Actor, id uint64) (model.Quotation, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return q, err
	}
	if !actor.owns(q.IDUsuario) {
		return model.Quotation{}, repository.ErrNotFound
	}
	return q, nil
}

// GetByCode looks a quotation up by its COT code.
func (s *Quotations) GetByCode(ctx context.Context, actor Actor, code string) (model.Quotation, error) {
	q, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return q, err
	}
	if !actor.owns(q.IDUsuario) {
		return model.Quotation{}, repository.ErrNotFound
	}
	return q, nil
}

// List returns the actor's quotations, or everybody's for admins.
func (s *Quotations) List(ctx context.Context, actor Actor, estado string, limit, offset int) ([]model.Quotation, error) {
	var owner *uint64
	if !actor.IsAdmin() {
		id := actor.ID
		owner = &id
	}
	return s.repo.List(ctx, owner, estado, limit, offset)
}

// Convert turns an open quotation into a pendiente reservation with the
// same total and extras.  A quotation that is missing, not visible to the
// actor or no longer creada is reported as not found; one past its expiry
// is marked expirada and ErrQuotationExpired is returned.
func (s *Quotations) Convert(ctx context.Context, actor Actor, id uint64) (model.Reservation, error) {
	peek, err := s.Get(ctx, actor, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if peek.Estado != model.QuotationCreated {
		return model.Reservation{}, repository.ErrNotFound
	}

	var res model.Reservation
	err = withDateLock(ctx, s.locker, peek.FechaReserva, func() error {
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

		q, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if q.Estado != model.QuotationCreated || !actor.owns(q.IDUsuario) {
			return repository.ErrNotFound
		}
		if q.ExpiredAt(s.now()) {
			if err := s.repo.MarkExpiredTx(ctx, tx, id); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			committed = true
			return ErrQuotationExpired
		}

		w, err := resolveEvent(&q.EventDetails)
		if err != nil {
			return err
		}
		conflicts, err := s.avail.ConflictsTx(ctx, tx, q.FechaReserva, w.Interval, repository.Exclusions{})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrSlotUnavailable
		}

		for attempt := 1; ; attempt++ {
			code, err := utils.NewTrackingCode(utils.ReservationPrefix, s.now())
			if err != nil {
				return err
			}
			res = model.Reservation{
				IDUsuario:         q.IDUsuario,
				CodigoSeguimiento: code,
				EventDetails:      q.EventDetails,
				Total:             q.Total,
				Estado:            model.ReservationPending,
				Extras:            q.Extras,
			}
			err = s.reservations.CreateTx(ctx, tx, &res)
			if err == nil {
				break
			}
			if !errors.Is(err, repository.ErrDuplicate) || attempt == maxCodeAttempts {
				return err
			}
		}
		if err := s.repo.MarkConvertedTx(ctx, tx, id, res.ID); err != nil {
			return err
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

	ev := reservationEvent(res, "cotizacion", s.now())
	publish(func(ctx context.Context) error {
		if err := s.events.ReservationCreated(ctx, ev); err != nil {
			slog.Warn("publish reserva.creada failed", "id_reserva", ev.IDReserva, "error", err)
			return err
		}
		return nil
	})
	return res, nil
}

// ExpireDue marks every open quotation past its expiry.  Run periodically.
func (s *Quotations) ExpireDue(ctx context.Context) (int64, error) {
	return s.repo.ExpireDue(ctx, s.now())
}
