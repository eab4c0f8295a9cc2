package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// SyncOutcome is the final state of one sync cycle.
type SyncOutcome string

const (
	// SyncApplied means the remote batch was merged and persisted.
	SyncApplied SyncOutcome = "applied"

	// SyncFailed means the store was left untouched.
	SyncFailed SyncOutcome = "failed"
)

// Sync triggers, used for logs and metrics.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// SyncResult reports one sync cycle.
type SyncResult struct {
	Outcome   SyncOutcome
	Trigger   string
	Fetched   int
	Added     int
	Conflicts int
	StartedAt time.Time
	Duration  time.Duration

	// Err is set when Outcome is SyncFailed.
	Err error
}

// Applied reports whether the cycle changed the store.
func (r SyncResult) Applied() bool {
	return r.Outcome == SyncApplied
}

// Message is the user-facing notice for the cycle.
func (r SyncResult) Message() string {
	if r.Outcome != SyncApplied {
		return "Failed to sync with server."
	}

	if r.Conflicts > 0 {
		return fmt.Sprintf("Quotes synced with server! %d conflict(s) resolved using server data.", r.Conflicts)
	}

	return "Quotes synced with server!"
}

// ReconcilerConfig wires a Reconciler.
type ReconcilerConfig struct {
	Store     *Store
	Source    ports.QuoteSource
	BatchSize int
	Metrics   *telemetry.SyncMetrics
	Clock     func() time.Time
}

// Reconciler pulls a batch from the remote source and merges it into the
// store. Remote records win every id collision.
type Reconciler struct {
	store     *Store
	source    ports.QuoteSource
	batchSize int
	metrics   *telemetry.SyncMetrics
	now       func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{
		store:     cfg.Store,
		source:    cfg.Source,
		batchSize: cfg.BatchSize,
		metrics:   cfg.Metrics,
		now:       cfg.Clock,
	}

	if r.batchSize <= 0 {
		r.batchSize = 5
	}

	if r.now == nil {
		r.now = time.Now
	}

	return r
}

// Sync runs one cycle. It never returns an error: failures are reported in
// the result and leave the store as it was.
func (r *Reconciler) Sync(ctx context.Context, trigger string) SyncResult {
	result := SyncResult{Trigger: trigger, StartedAt: r.now()}
	logger := logging.FromContext(ctx).With(slog.String("trigger", trigger))

	batch, err := r.source.FetchBatch(ctx, r.batchSize)
	if err != nil {
		return r.finish(ctx, logger, result, err)
	}

	result.Fetched = len(batch)

	err = r.store.Apply(ctx, func(current []domain.Quote) ([]domain.Quote, error) {
		merged := domain.Merge(current, batch)
		result.Added = merged.Added
		result.Conflicts = merged.Conflicts

		if logger.Enabled(ctx, logging.LevelTrace) {
			present := idSet(current)
			for _, q := range batch {
				_, replaced := present[q.ID]
				logger.Log(ctx, logging.LevelTrace, "remote record merged",
					slog.Int64("quote_id", q.ID),
					slog.Bool("replaced", replaced),
				)
			}
		}

		return merged.Quotes, nil
	})
	if err != nil {
		result.Added, result.Conflicts = 0, 0

		return r.finish(ctx, logger, result, err)
	}

	return r.finish(ctx, logger, result, nil)
}

func (r *Reconciler) finish(ctx context.Context, logger *slog.Logger, result SyncResult, err error) SyncResult {
	result.Duration = r.now().Sub(result.StartedAt)

	if err != nil {
		result.Outcome = SyncFailed
		result.Err = err

		logger.WarnContext(ctx, "sync failed",
			slog.Any("error", err),
			slog.Duration("duration", result.Duration),
		)
	} else {
		result.Outcome = SyncApplied

		logger.InfoContext(ctx, "sync applied",
			slog.Int("fetched", result.Fetched),
			slog.Int("added", result.Added),
			slog.Int("conflicts", result.Conflicts),
			slog.Duration("duration", result.Duration),
		)
	}

	r.metrics.RecordCycle(ctx, string(result.Outcome), result.Trigger, result.Added, result.Conflicts, result.Duration)

	return result
}
