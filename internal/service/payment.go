package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/payment"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

// Payments runs the pay-first flow: a hold (pre-reservation) and a pending
// payment are created first, the reservation only once the charge is
// confirmed.
type Payments struct {
	repo         *repository.PaymentRepo
	reservations *repository.ReservationRepo
	finance      *repository.FinanceRepo
	avail        *Availability
	catalog      Catalog
	gateway      payment.Gateway
	locker       lock.Locker
	events       EventPublisher
	hold         time.Duration
	currency     string
	now          func() time.Time
}

// PaymentsConfig carries the flow's tunables.
type PaymentsConfig struct {
	Hold     time.Duration
	Currency string
}

func NewPayments(repo *repository.PaymentRepo, reservations *repository.ReservationRepo, finance *repository.FinanceRepo,
	avail *Availability, catalog Catalog, gateway payment.Gateway, locker lock.Locker, events EventPublisher, cfg PaymentsConfig) *Payments {
	if cfg.Hold <= 0 {
		cfg.Hold = 30 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "mxn"
	}
	return &Payments{repo: repo, reservations: reservations, finance: finance, avail: avail, catalog: catalog,
		gateway: gateway, locker: locker, events: events, hold: cfg.Hold, currency: cfg.Currency, now: time.Now}
}

// InitiateRequest is a booking plus how it will be paid.
type InitiateRequest struct {
	model.BookingRequest
	MetodoPago        string
	CodigoSeguimiento string
}

// InitiateResult is returned to the client to complete the charge.
type InitiateResult struct {
	PreReserva model.PreReservation `json:"pre_reserva"`
	Pago       model.Payment        `json:"pago"`
	Cargo      payment.Charge       `json:"cargo"`
}

// heldBooking is what a hold stores in its datos column: the resolved event
// and the extras priced at initiation.
type heldBooking struct {
	model.EventDetails
	Extras []model.LineExtra `json:"extras"`
}

// Initiate checks the range, prices the booking and stores the hold and
// its pending payment in one transaction.  The gateway charge is opened
// after commit; if that fails the payment and hold are cancelled.
func (s *Payments) Initiate(ctx context.Context, actor Actor, req InitiateRequest) (InitiateResult, error) {
	method, ok := payment.NormalizeMethod(req.MetodoPago)
	if !ok {
		return InitiateResult{}, fmt.Errorf("%w: metodo_pago %q no soportado", ErrInvalidInput, req.MetodoPago)
	}
	d := req.EventDetails
	w, err := resolveEvent(&d)
	if err != nil {
		return InitiateResult{}, err
	}
	now := s.now().UTC()
	if err := notPast(d.FechaReserva, now); err != nil {
		return InitiateResult{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.CodigoSeguimiento))
	supplied := code != ""
	if !supplied {
		if code, err = utils.NewTrackingCode(utils.ReservationPrefix, now); err != nil {
			return InitiateResult{}, err
		}
	} else if !utils.IsTrackingCode(code) {
		return InitiateResult{}, fmt.Errorf("%w: codigo_seguimiento inválido", ErrInvalidInput)
	}

	var out InitiateResult
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

		for attempt := 1; ; attempt++ {
			taken, err := s.reservations.CodeTakenTx(ctx, tx, code)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			if supplied || attempt == maxCodeAttempts {
				return fmt.Errorf("%w: codigo_seguimiento %s ya está en uso", repository.ErrDuplicate, code)
			}
			if code, err = utils.NewTrackingCode(utils.ReservationPrefix, now); err != nil {
				return err
			}
		}
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
		datos, err := json.Marshal(heldBooking{EventDetails: d, Extras: priced.Extras})
		if err != nil {
			return err
		}

		pre := model.PreReservation{
			ID:                uuid.NewString(),
			IDUsuario:         actor.ID,
			CodigoSeguimiento: code,
			FechaReserva:      d.FechaReserva,
			HoraInicio:        d.HoraInicio,
			HoraFin:           d.HoraFin,
			Datos:             datos,
			Total:             priced.Total,
			Estado:            model.PreReservationAwaitingPayment,
			ExpiraEn:          now.Add(s.hold).Truncate(time.Second),
			CreatedAt:         now,
		}
		if err := s.repo.CreatePreReservationTx(ctx, tx, &pre); err != nil {
			return err
		}
		pay := model.Payment{
			IDUsuario:    actor.ID,
			IDPreReserva: &pre.ID,
			MetodoPago:   method,
			Monto:        priced.Total,
			Moneda:       s.currency,
			Estado:       model.PaymentPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.CreatePaymentTx(ctx, tx, &pay); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		out.PreReserva, out.Pago = pre, pay
		return nil
	})
	if err != nil {
		return InitiateResult{}, err
	}

	charge, err := s.gateway.OpenCharge(ctx, payment.ChargeRequest{
		PaymentID:   out.Pago.ID,
		Amount:      out.Pago.Monto,
		Currency:    out.Pago.Moneda,
		Method:      out.Pago.MetodoPago,
		Description: "Reservación " + out.PreReserva.CodigoSeguimiento,
	})
	if err != nil {
		slog.Error("open charge failed, releasing hold", "id_pago", out.Pago.ID, "gateway", s.gateway.Name(), "error", err)
		if cerr := s.cancelPending(context.WithoutCancel(ctx), out.Pago.ID, out.Pago.IDPreReserva); cerr != nil {
			slog.Error("release hold failed", "id_pago", out.Pago.ID, "error", cerr)
		}
		return InitiateResult{}, fmt.Errorf("open charge: %w", err)
	}
	if err := s.repo.SetReference(ctx, out.Pago.ID, charge.Reference); err != nil {
		return InitiateResult{}, err
	}
	ref := charge.Reference
	out.Pago.ReferenciaExterna = &ref
	out.Cargo = charge
	return out, nil
}

// ConfirmRequest identifies the payment being settled and carries the
// processor's confirmation payload.
type ConfirmRequest struct {
	IDPago            uint64
	DatosConfirmacion json.RawMessage
}

// ConfirmResult is the outcome of a successful confirmation.
type ConfirmResult struct {
	Reserva model.Reservation `json:"reserva"`
	Pago    model.Payment     `json:"pago"`
}

// Confirm verifies the charge, then creates the reservation (confirmada),
// completes the payment, finalizes the hold and books the income, all in
// one transaction.
func (s *Payments) Confirm(ctx context.Context, actor Actor, req ConfirmRequest) (ConfirmResult, error) {
	pay, err := s.repo.GetPayment(ctx, req.IDPago)
	if err != nil {
		return ConfirmResult{}, err
	}
	if !actor.owns(pay.IDUsuario) {
		return ConfirmResult{}, repository.ErrNotFound
	}
	if pay.Estado != model.PaymentPending {
		return ConfirmResult{}, fmt.Errorf("%w: el pago está %s", ErrInvalidState, pay.Estado)
	}
	if pay.IDPreReserva == nil {
		return ConfirmResult{}, fmt.Errorf("%w: el pago no tiene pre-reserva", ErrInvalidState)
	}
	pre, err := s.repo.GetPreReservation(ctx, *pay.IDPreReserva)
	if err != nil {
		return ConfirmResult{}, err
	}
	if err := s.holdOpen(pre); err != nil {
		return ConfirmResult{}, err
	}
	if pay.ReferenciaExterna == nil {
		return ConfirmResult{}, ErrPaymentNotVerified
	}
	if err := s.gateway.Verify(ctx, *pay.ReferenciaExterna); err != nil {
		if errors.Is(err, payment.ErrNotPaid) {
			return ConfirmResult{}, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
		}
		return ConfirmResult{}, err
	}

	var out ConfirmResult
	err = withDateLock(ctx, s.locker, pre.FechaReserva, func() error {
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

		pay, err := s.repo.GetPaymentForUpdateTx(ctx, tx, req.IDPago)
		if err != nil {
			return err
		}
		if pay.Estado != model.PaymentPending {
			return fmt.Errorf("%w: el pago está %s", ErrInvalidState, pay.Estado)
		}
		pre, err := s.repo.GetPreReservationForUpdateTx(ctx, tx, *pay.IDPreReserva)
		if err != nil {
			return err
		}
		if err := s.holdOpen(pre); err != nil {
			return err
		}
		var held heldBooking
		if err := json.Unmarshal(pre.Datos, &held); err != nil {
			return fmt.Errorf("decode pre-reserva datos: %w", err)
		}
		w, err := resolveEvent(&held.EventDetails)
		if err != nil {
			return err
		}
		conflicts, err := s.avail.ConflictsTx(ctx, tx, pre.FechaReserva, w.Interval,
			repository.Exclusions{PreReservationID: pre.ID})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrSlotUnavailable
		}

		res := model.Reservation{
			IDUsuario:         pre.IDUsuario,
			CodigoSeguimiento: pre.CodigoSeguimiento,
			EventDetails:      held.EventDetails,
			Total:             pre.Total,
			Estado:            model.ReservationConfirmed,
			Extras:            held.Extras,
		}
		// the charge is captured by now; a code taken since initiation is reissued
		for attempt := 1; ; attempt++ {
			err := s.reservations.CreateTx(ctx, tx, &res)
			if err == nil {
				break
			}
			if !errors.Is(err, repository.ErrDuplicate) || attempt == maxCodeAttempts {
				return err
			}
			code, err := utils.NewTrackingCode(utils.ReservationPrefix, s.now())
			if err != nil {
				return err
			}
			slog.Warn("tracking code taken at confirm, reissuing",
				"id_pre_reserva", pre.ID, "codigo", res.CodigoSeguimiento, "nuevo", code)
			res.CodigoSeguimiento = code
		}
		if err := s.repo.CompletePaymentTx(ctx, tx, pay.ID, res.ID, req.DatosConfirmacion); err != nil {
			return err
		}
		if err := s.repo.FinalizePreReservationTx(ctx, tx, pre.ID, res.ID); err != nil {
			return err
		}
		desc := "Pago de reservación " + res.CodigoSeguimiento
		payID, resID, userID := pay.ID, res.ID, pay.IDUsuario
		entry := model.FinanceEntry{
			Tipo:        model.FinanceIncome,
			Monto:       pay.Monto,
			Descripcion: &desc,
			IDReserva:   &resID,
			IDPago:      &payID,
			Fecha:       s.now().Format("2006-01-02"),
			IDUsuario:   &userID,
		}
		if err := s.finance.CreateTx(ctx, tx, &entry); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true

		pay.Estado = model.PaymentCompleted
		pay.IDReserva = &resID
		if len(req.DatosConfirmacion) > 0 {
			pay.DatosConfirmacion = req.DatosConfirmacion
		}
		out = ConfirmResult{Reserva: res, Pago: pay}
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	ev := reservationEvent(out.Reserva, "pago", s.now())
	publish(func(ctx context.Context) error {
		if err := s.events.ReservationConfirmed(ctx, ev); err != nil {
			slog.Warn("publish reserva.confirmada failed", "id_reserva", ev.IDReserva, "error", err)
			return err
		}
		return nil
	})
	return out, nil
}

// holdOpen rejects holds that are closed or past their window.
func (s *Payments) holdOpen(pre model.PreReservation) error {
	if pre.Estado != model.PreReservationAwaitingPayment {
		return fmt.Errorf("%w: la pre-reserva está %s", ErrInvalidState, pre.Estado)
	}
	if !s.now().Before(pre.ExpiraEn) {
		return fmt.Errorf("%w: la pre-reserva expiró", ErrInvalidState)
	}
	return nil
}

// PreReservationView lets a client resume an in-flight payment.
type PreReservationView struct {
	PreReserva model.PreReservation `json:"pre_reserva"`
	Pago       *model.Payment       `json:"pago,omitempty"`
	IDReserva  *uint64              `json:"id_reserva,omitempty"`
}

// PreReservation returns a hold with its latest payment.
func (s *Payments) PreReservation(ctx context.Context, actor Actor, id string) (PreReservationView, error) {
	pre, err := s.repo.GetPreReservation(ctx, id)
	if err != nil {
		return PreReservationView{}, err
	}
	if !actor.owns(pre.IDUsuario) {
		return PreReservationView{}, repository.ErrNotFound
	}
	out := PreReservationView{PreReserva: pre, IDReserva: pre.IDReserva}
	pay, err := s.repo.LatestPaymentForPreReservation(ctx, id)
	switch {
	case err == nil:
		out.Pago = &pay
	case !errors.Is(err, repository.ErrNotFound):
		return PreReservationView{}, err
	}
	return out, nil
}

// Cancel cancels a pending payment, releases its hold and voids the charge
// at the processor.
func (s *Payments) Cancel(ctx context.Context, actor Actor, id uint64) (model.Payment, error) {
	pay, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return pay, err
	}
	if !actor.owns(pay.IDUsuario) {
		return model.Payment{}, repository.ErrNotFound
	}
	if pay.Estado != model.PaymentPending {
		return model.Payment{}, fmt.Errorf("%w: el pago está %s", ErrInvalidState, pay.Estado)
	}
	if err := s.cancelPending(ctx, id, pay.IDPreReserva); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Payment{}, ErrInvalidState
		}
		return model.Payment{}, err
	}
	if pay.ReferenciaExterna != nil {
		if err := s.gateway.Cancel(ctx, *pay.ReferenciaExterna); err != nil {
			slog.Warn("gateway cancel failed", "id_pago", id, "error", err)
		}
	}
	return s.repo.GetPayment(ctx, id)
}

func (s *Payments) cancelPending(ctx context.Context, paymentID uint64, preID *string) error {
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
	if err := s.repo.CancelTx(ctx, tx, paymentID, preID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns payments; clients only see their own.
func (s *Payments) List(ctx context.Context, actor Actor, f model.PaymentFilter) ([]model.Payment, error) {
	if !actor.IsAdmin() {
		id := actor.ID
		f.IDUsuario = &id
	}
	return s.repo.ListPayments(ctx, f)
}

// ExpireHolds closes holds past their window.  Run periodically.
func (s *Payments) ExpireHolds(ctx context.Context) (int64, error) {
	return s.repo.ExpireHolds(ctx)
}
