package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records reconcile cycles. A nil *SyncMetrics is valid and
// records nothing.
type SyncMetrics struct {
	cycles    metric.Int64Counter
	added     metric.Int64Counter
	conflicts metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewSyncMetrics creates the sync instruments on the global meter provider.
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(instrumentationName)

	cycles, err := meter.Int64Counter(
		"quotes.sync.cycles",
		metric.WithDescription("Sync cycles by outcome and trigger"),
	)
	if err != nil {
		return nil, err
	}

	added, err := meter.Int64Counter(
		"quotes.sync.added",
		metric.WithDescription("Remote quotes appended to the collection"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"quotes.sync.conflicts",
		metric.WithDescription("Local quotes replaced by remote records"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"quotes.sync.duration",
		metric.WithDescription("Sync cycle duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycles:    cycles,
		added:     added,
		conflicts: conflicts,
		duration:  duration,
	}, nil
}

// RecordCycle records one finished cycle.
func (m *SyncMetrics) RecordCycle(ctx context.Context, outcome, trigger string, added, conflicts int, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("trigger", trigger),
	)

	m.cycles.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.added.Add(ctx, int64(added))
	m.conflicts.Add(ctx, int64(conflicts))
}
