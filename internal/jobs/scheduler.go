// Package jobs runs the periodic sweeps: quotation expiry, pay-first hold
// expiry and the inventory alert sweeps.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/party-venue-reservation/internal/metrics"
)

// runTimeout bounds a single sweep.
const runTimeout = time.Minute

// Task is one sweep.  It returns how many rows it changed.
type Task func(ctx context.Context) (int64, error)

// Scheduler wraps a gocron scheduler whose jobs share one root context,
// cancelled on Shutdown.
type Scheduler struct {
	sched   gocron.Scheduler
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(m *metrics.Metrics) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{sched: sched, metrics: m, ctx: ctx, cancel: cancel}, nil
}

// Every runs task every d, the first time right after Start.
func (s *Scheduler) Every(name string, d time.Duration, task Task) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(s.run, name, task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	return err
}

// DailyAt runs task once a day at hour:minute UTC.
func (s *Scheduler) DailyAt(name string, hour, minute uint, task Task) error {
	_, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(s.run, name, task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	out := []string{}
	for _, j := range s.sched.Jobs() {
		out = append(out, j.Name())
	}
	return out
}

func (s *Scheduler) Start() { s.sched.Start() }

// Shutdown cancels running sweeps and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}

func (s *Scheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()
	start := time.Now()
	n, err := task(ctx)
	s.metrics.ObserveJob(name, n, err)
	if err != nil {
		slog.Error("job failed", "job", name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	if n > 0 {
		slog.Info("job done", "job", name, "affected", n, "duration_ms", time.Since(start).Milliseconds())
	}
}
