package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/metrics"
)

type fakeSweeps struct {
	quotations, holds, lots, deadlines int
	retention                          time.Duration
}

func (f *fakeSweeps) ExpireDue(context.Context) (int64, error)   { f.quotations++; return 2, nil }
func (f *fakeSweeps) ExpireHolds(context.Context) (int64, error) { f.holds++; return 0, nil }
func (f *fakeSweeps) SweepExpiringLots(context.Context) (int, error) {
	f.lots++
	return 1, nil
}
func (f *fakeSweeps) SweepSupplierDeadlines(context.Context) (int, error) {
	f.deadlines++
	return 0, errors.New("db down")
}

func (f *fakeSweeps) PurgeStale(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, nil
}

func TestRegisterAddsEverySweep(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	f := &fakeSweeps{}
	require.NoError(t, Register(s, Intervals{}, Sweeps{Quotations: f, Holds: f, Inventory: f, Sessions: f}))

	assert.ElementsMatch(t, []string{
		JobExpireQuotations, JobExpireHolds, JobExpiringLots, JobSupplierDeadlines, JobPurgeSessions,
	}, s.Jobs())
	_ = s.Shutdown()
}

func TestRegisterWithoutSessionPurge(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()
	f := &fakeSweeps{}
	require.NoError(t, Register(s, Intervals{}, Sweeps{Quotations: f, Holds: f, Inventory: f}))
	assert.NotContains(t, s.Jobs(), JobPurgeSessions)
}

func TestRunRecordsMetrics(t *testing.T) {
	m := metrics.New()
	s, err := New(m)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()
	f := &fakeSweeps{}

	s.run(JobExpireQuotations, f.ExpireDue)
	s.run(JobSupplierDeadlines, widen(f.SweepSupplierDeadlines))

	assert.Equal(t, 1, f.quotations)
	assert.Equal(t, 1, f.deadlines)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues(JobExpireQuotations, "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobAffected.WithLabelValues(JobExpireQuotations)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues(JobSupplierDeadlines, "error")))
}

func TestCancelledSchedulerCancelsSweeps(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()
	s.cancel()

	var seen error
	s.run("x", func(ctx context.Context) (int64, error) {
		seen = ctx.Err()
		return 0, nil
	})
	assert.ErrorIs(t, seen, context.Canceled)
}
