package jobs

import (
	"context"
	"time"
)

// Job names, also used as metric labels.
const (
	JobExpireQuotations  = "expirar_cotizaciones"
	JobExpireHolds       = "expirar_pre_reservas"
	JobExpiringLots      = "alertas_caducidad"
	JobSupplierDeadlines = "alertas_fecha_limite_proveedor"
	JobPurgeSessions     = "purgar_sesiones"
)

// sessionRetention keeps dead refresh tokens around for a week of forensics.
const sessionRetention = 7 * 24 * time.Hour

type quotationExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

type holdExpirer interface {
	ExpireHolds(ctx context.Context) (int64, error)
}

type inventorySweeper interface {
	SweepExpiringLots(ctx context.Context) (int, error)
	SweepSupplierDeadlines(ctx context.Context) (int, error)
}

type sessionPurger interface {
	PurgeStale(ctx context.Context, retention time.Duration) (int64, error)
}

// Intervals of the frequent sweeps.
type Intervals struct {
	Quotations time.Duration
	Holds      time.Duration
}

// Sweeps groups the workflows the scheduler drives.
type Sweeps struct {
	Quotations quotationExpirer
	Holds      holdExpirer
	Inventory  inventorySweeper
	Sessions   sessionPurger
}

// Register adds the sweeps.  Inventory alerts run daily at 06:00 UTC and
// the session purge at 03:30 UTC.  A nil Sessions skips the purge.
func Register(s *Scheduler, iv Intervals, w Sweeps) error {
	if iv.Quotations <= 0 {
		iv.Quotations = 10 * time.Minute
	}
	if iv.Holds <= 0 {
		iv.Holds = time.Minute
	}
	if err := s.Every(JobExpireQuotations, iv.Quotations, w.Quotations.ExpireDue); err != nil {
		return err
	}
	if err := s.Every(JobExpireHolds, iv.Holds, w.Holds.ExpireHolds); err != nil {
		return err
	}
	if err := s.DailyAt(JobExpiringLots, 6, 0, widen(w.Inventory.SweepExpiringLots)); err != nil {
		return err
	}
	if err := s.DailyAt(JobSupplierDeadlines, 6, 0, widen(w.Inventory.SweepSupplierDeadlines)); err != nil {
		return err
	}
	if w.Sessions == nil {
		return nil
	}
	return s.DailyAt(JobPurgeSessions, 3, 30, func(ctx context.Context) (int64, error) {
		return w.Sessions.PurgeStale(ctx, sessionRetention)
	})
}

func widen(fn func(context.Context) (int, error)) Task {
	return func(ctx context.Context) (int64, error) {
		n, err := fn(ctx)
		return int64(n), err
	}
}
