package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/fragstats/fragstatsd/internal/attr"
)

// DefaultMaxAge is how long a session may sit idle before the sweep evicts
// it. Covers feeds that lose disconnect events (server crash, dropped log).
const DefaultMaxAge = 6 * time.Hour

// SweepArgs is the periodic eviction job. It carries no payload; the worker
// owns the max-age policy.
type SweepArgs struct{}

func (SweepArgs) Kind() string { return "session_sweep" }

// SweepMetrics is the observability slice the sweep reports.
type SweepMetrics interface {
	RecordSessionsSwept(n int)
	SetActiveSessions(n int)
}

// SweepWorker evicts sessions idle beyond the configured age.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]

	logger  *slog.Logger
	store   Store
	metrics SweepMetrics
	maxAge  time.Duration
}

// NewSweepWorker creates a sweep worker. A non-positive maxAge falls back
// to DefaultMaxAge.
func NewSweepWorker(logger *slog.Logger, store Store, metrics SweepMetrics, maxAge time.Duration) *SweepWorker {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &SweepWorker{
		logger:  logger,
		store:   store,
		metrics: metrics,
		maxAge:  maxAge,
	}
}

func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	evicted := w.store.Sweep(ctx, w.maxAge)
	if evicted > 0 {
		w.logger.InfoContext(ctx, "Swept stale sessions",
			attr.Int("evicted", evicted),
			attr.Duration("max_age", w.maxAge),
		)
	}
	w.metrics.RecordSessionsSwept(evicted)
	w.metrics.SetActiveSessions(w.store.Len())
	return nil
}
