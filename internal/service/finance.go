package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// Finance records manual income and expense entries.  Reservation income
// is booked by Payments.Confirm.
type Finance struct {
	repo       *repository.FinanceRepo
	categories *repository.CatalogStore[model.Category]
	now        func() time.Time
}

func NewFinance(repo *repository.FinanceRepo, categories *repository.CatalogStore[model.Category]) *Finance {
	return &Finance{repo: repo, categories: categories, now: time.Now}
}

func validFinanceType(t string) bool { return t == model.FinanceIncome || t == model.FinanceExpense }

// ValidateCategory checks a category before it is stored.
func ValidateCategory(c *model.Category) error {
	c.Nombre = strings.TrimSpace(c.Nombre)
	if c.Nombre == "" {
		return fmt.Errorf("%w: nombre es obligatorio", ErrInvalidInput)
	}
	if !validFinanceType(c.Tipo) {
		return fmt.Errorf("%w: tipo debe ser ingreso o gasto", ErrInvalidInput)
	}
	return nil
}

// Create stores an entry.  The category, when given, must be active and
// of the same tipo.  Fecha defaults to today.
func (s *Finance) Create(ctx context.Context, actor Actor, e model.FinanceEntry) (model.FinanceEntry, error) {
	if !validFinanceType(e.Tipo) {
		return e, fmt.Errorf("%w: tipo debe ser ingreso o gasto", ErrInvalidInput)
	}
	if !e.Monto.IsPositive() {
		return e, fmt.Errorf("%w: monto debe ser positivo", ErrInvalidInput)
	}
	if e.Fecha == "" {
		e.Fecha = s.now().Format(schedule.DateLayout)
	} else if _, err := schedule.ParseDate(e.Fecha); err != nil {
		return e, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if e.IDCategoria != nil {
		cat, err := s.categories.GetActiveTx(ctx, s.categories.DB(), *e.IDCategoria)
		if err != nil {
			return e, referenceErr(err, "categoria", *e.IDCategoria)
		}
		if cat.Tipo != e.Tipo {
			return e, fmt.Errorf("%w: la categoría es de tipo %s", ErrInvalidInput, cat.Tipo)
		}
	}
	uid := actor.ID
	e.IDUsuario = &uid
	e.IDReserva, e.IDPago = nil, nil
	if err := s.repo.CreateTx(ctx, s.repo.DB(), &e); err != nil {
		return e, err
	}
	return e, nil
}

// List returns entries, newest first.
func (s *Finance) List(ctx context.Context, f repository.FinanceFilter) ([]model.FinanceEntry, error) {
	if err := validRange(f.Desde, f.Hasta); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// Summary totals income, expenses and balance per month.
func (s *Finance) Summary(ctx context.Context, f repository.FinanceFilter) ([]model.FinanceSummary, error) {
	if err := validRange(f.Desde, f.Hasta); err != nil {
		return nil, err
	}
	return s.repo.MonthlySummary(ctx, f)
}

func validRange(desde, hasta string) error {
	for _, d := range []string{desde, hasta} {
		if d == "" {
			continue
		}
		if _, err := schedule.ParseDate(d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}
