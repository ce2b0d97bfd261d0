package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// Availability answers whether a time range on a date is free.
type Availability struct {
	reservations *repository.ReservationRepo
	catalog      Catalog
}

func NewAvailability(reservations *repository.ReservationRepo, catalog Catalog) *Availability {
	return &Availability{reservations: reservations, catalog: catalog}
}

// Slot is the state of one fixed slot on a date.
type Slot struct {
	Horario    string `json:"horario"`
	HoraInicio string `json:"hora_inicio"`
	HoraFin    string `json:"hora_fin"`
	Disponible bool   `json:"disponible"`
}

// AvailabilityResult answers one check.  Horarios lists both fixed slots
// of the date so clients can render the day.
type AvailabilityResult struct {
	Fecha                string            `json:"fecha"`
	Horario              string            `json:"horario,omitempty"`
	HoraInicio           string            `json:"hora_inicio,omitempty"`
	HoraFin              string            `json:"hora_fin,omitempty"`
	Disponible           bool              `json:"disponible"`
	Conflictos           []repository.Busy `json:"conflictos"`
	Horarios             []Slot            `json:"horarios"`
	InventarioSuficiente *bool             `json:"inventario_suficiente,omitempty"`
}

// AvailabilityQuery is the input of Check.  When neither Horario nor
// HoraInicio is set only the per-slot summary is computed.
type AvailabilityQuery struct {
	Fecha            string
	Horario          string
	HoraInicio       string
	HoraFin          string
	IDOpcionAlimento *uint64
	NumeroAdultos    int
	NumeroNinos      int
	CheckStock       bool
}

// Check is read-only.  Database failures are returned as-is.
func (a *Availability) Check(ctx context.Context, in AvailabilityQuery) (AvailabilityResult, error) {
	if _, err := schedule.ParseDate(in.Fecha); err != nil {
		return AvailabilityResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fecha := strings.TrimSpace(in.Fecha)
	busy, err := a.reservations.BusyOnDateTx(ctx, a.reservations.DB(), fecha, repository.Exclusions{})
	if err != nil {
		return AvailabilityResult{}, err
	}
	out := AvailabilityResult{Fecha: fecha, Disponible: true, Conflictos: []repository.Busy{}}
	for _, name := range schedule.Slots() {
		iv, _ := schedule.SlotRange(name)
		out.Horarios = append(out.Horarios, Slot{
			Horario:    name,
			HoraInicio: schedule.FormatClock(iv.Start),
			HoraFin:    schedule.FormatClock(iv.End),
			Disponible: len(overlapping(busy, iv)) == 0,
		})
	}
	if in.Horario != "" || in.HoraInicio != "" {
		w, err := schedule.Resolve(in.Horario, in.HoraInicio, in.HoraFin)
		if err != nil {
			return AvailabilityResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		out.Horario, out.HoraInicio, out.HoraFin = w.Horario, w.HoraInicio, w.HoraFin
		out.Conflictos = overlapping(busy, w.Interval)
		out.Disponible = len(out.Conflictos) == 0
	}
	if in.CheckStock {
		ok, err := a.StockSufficient(ctx, a.reservations.DB(), in.IDOpcionAlimento, in.NumeroAdultos+in.NumeroNinos)
		if err != nil {
			return AvailabilityResult{}, err
		}
		out.InventarioSuficiente = &ok
	}
	return out, nil
}

// StockSufficient reports whether the raw material linked to a food
// option covers cantidad_por_persona for every guest.  Options without a
// linked material, and requests without an option, are always sufficient.
func (a *Availability) StockSufficient(ctx context.Context, q repository.DBTX, foodOptionID *uint64, guests int) (bool, error) {
	if foodOptionID == nil {
		return true, nil
	}
	opt, err := a.catalog.FoodOptions.GetActiveTx(ctx, q, *foodOptionID)
	if err != nil {
		return false, referenceErr(err, "opcion_alimento", *foodOptionID)
	}
	if opt.IDMateriaPrima == nil {
		return true, nil
	}
	mat, err := a.catalog.Materials.GetTx(ctx, q, *opt.IDMateriaPrima)
	if err != nil {
		return false, err
	}
	required := opt.CantidadPorPersona.Mul(decimal.NewFromInt(int64(guests)))
	return mat.StockActual.GreaterThanOrEqual(required), nil
}

// ConflictsTx lists the busy ranges on fecha overlapping w, skipping the
// records in ex.  It runs on q so callers can check inside their
// transaction.
func (a *Availability) ConflictsTx(ctx context.Context, q repository.DBTX, fecha string, w schedule.Interval, ex repository.Exclusions) ([]repository.Busy, error) {
	busy, err := a.reservations.BusyOnDateTx(ctx, q, fecha, ex)
	if err != nil {
		return nil, err
	}
	return overlapping(busy, w), nil
}

// BlockedDates lists the dates in [desde, hasta] whose two fixed slots
// are both taken.
func (a *Availability) BlockedDates(ctx context.Context, desde, hasta string) ([]string, error) {
	from, err := schedule.ParseDate(desde)
	if err != nil {
		return nil, fmt.Errorf("%w: desde: %v", ErrInvalidInput, err)
	}
	to, err := schedule.ParseDate(hasta)
	if err != nil {
		return nil, fmt.Errorf("%w: hasta: %v", ErrInvalidInput, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: hasta anterior a desde", ErrInvalidInput)
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, fmt.Errorf("%w: rango mayor a un año", ErrInvalidInput)
	}
	ranges, err := a.reservations.BusyBetween(ctx, from.Format(schedule.DateLayout), to.Format(schedule.DateLayout))
	if err != nil {
		return nil, err
	}
	byDate := map[string][]repository.Busy{}
	order := []string{}
	for _, r := range ranges {
		if _, seen := byDate[r.Fecha]; !seen {
			order = append(order, r.Fecha)
		}
		byDate[r.Fecha] = append(byDate[r.Fecha], repository.Busy{HoraInicio: r.HoraInicio, HoraFin: r.HoraFin})
	}
	out := []string{}
	for _, fecha := range order {
		full := true
		for _, name := range schedule.Slots() {
			iv, _ := schedule.SlotRange(name)
			if len(overlapping(byDate[fecha], iv)) == 0 {
				full = false
				break
			}
		}
		if full {
			out = append(out, fecha)
		}
	}
	return out, nil
}

// overlapping filters busy down to the ranges that overlap iv.  Rows with
// unparseable hours are treated as blocking the whole day.
func overlapping(busy []repository.Busy, iv schedule.Interval) []repository.Busy {
	out := []repository.Busy{}
	for _, b := range busy {
		start, err1 := schedule.ParseClock(b.HoraInicio)
		end, err2 := schedule.ParseClock(b.HoraFin)
		if err1 != nil || err2 != nil {
			out = append(out, b)
			continue
		}
		if schedule.Overlaps(iv, schedule.Interval{Start: start, End: end}) {
			out = append(out, b)
		}
	}
	return out
}

// resolveEvent validates the date and time fields of d and rewrites them
// in canonical form.  It returns the resolved window.
func resolveEvent(d *model.EventDetails) (schedule.Window, error) {
	date, err := schedule.ParseDate(d.FechaReserva)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	w, err := schedule.Resolve(d.Horario, d.HoraInicio, d.HoraFin)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if d.NumeroAdultos < 0 || d.NumeroNinos < 0 {
		return schedule.Window{}, fmt.Errorf("%w: número de invitados negativo", ErrInvalidInput)
	}
	d.FechaReserva = date.Format(schedule.DateLayout)
	d.Horario, d.HoraInicio, d.HoraFin = w.Horario, w.HoraInicio, w.HoraFin
	return w, nil
}

// notPast rejects event dates before today in the venue calendar.
func notPast(fecha string, now time.Time) error {
	if fecha < now.Format(schedule.DateLayout) {
		return fmt.Errorf("%w: la fecha ya pasó", ErrInvalidInput)
	}
	return nil
}
