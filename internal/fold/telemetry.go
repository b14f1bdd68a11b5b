package fold

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// InstrumentationName is the name used for OTEL instrumentation.
	InstrumentationName = "github.com/dshills/foldlayer/internal/fold"
)

// Metrics provides OpenTelemetry metrics for the fold engine.
// A nil *Metrics records nothing.
type Metrics struct {
	foldTotal         metric.Int64Counter
	unfoldTotal       metric.Int64Counter
	reconcileTotal    metric.Int64Counter
	repairTotal       metric.Int64Counter
	invalidationTotal metric.Int64Counter
	revealTotal       metric.Int64Counter

	reconcileDuration metric.Float64Histogram

	initialized bool
}

// NewMetrics creates a new Metrics instance with the provided meter.
// If meter is nil, uses the global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.foldTotal, "fold.fold.total", "Fold operations that changed coverage"},
		{&m.unfoldTotal, "fold.unfold.total", "Unfold operations that changed coverage"},
		{&m.reconcileTotal, "fold.reconcile.total", "Edits reconciled"},
		{&m.repairTotal, "fold.repair.total", "Stale folded insertions revealed"},
		{&m.invalidationTotal, "fold.fragile.invalidated.total", "Folds removed by fragile predicates"},
		{&m.revealTotal, "fold.search.reveal.total", "Folds temporarily revealed by search"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			return nil, err
		}
	}

	m.reconcileDuration, err = meter.Float64Histogram(
		"fold.reconcile.duration.seconds",
		metric.WithDescription("Time spent reconciling one edit"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1, 1),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

func (m *Metrics) add(c metric.Int64Counter, spec SpecID) {
	if m == nil || !m.initialized {
		return
	}
	var opts []metric.AddOption
	if spec != "" {
		opts = append(opts, metric.WithAttributes(attribute.String("spec", string(spec))))
	}
	c.Add(context.Background(), 1, opts...)
}

// RecordFold counts a fold that changed coverage.
func (m *Metrics) RecordFold(spec SpecID) {
	if m == nil {
		return
	}
	m.add(m.foldTotal, spec)
}

// RecordUnfold counts an unfold that changed coverage.
func (m *Metrics) RecordUnfold(spec SpecID) {
	if m == nil {
		return
	}
	m.add(m.unfoldTotal, spec)
}

// RecordRepair counts a stale folded insertion revealed.
func (m *Metrics) RecordRepair(spec SpecID) {
	if m == nil {
		return
	}
	m.add(m.repairTotal, spec)
}

// RecordInvalidation counts a fold removed by a fragile predicate.
func (m *Metrics) RecordInvalidation(spec SpecID) {
	if m == nil {
		return
	}
	m.add(m.invalidationTotal, spec)
}

// RecordReveal counts a fold temporarily revealed by search.
func (m *Metrics) RecordReveal(spec SpecID) {
	if m == nil {
		return
	}
	m.add(m.revealTotal, spec)
}

// RecordReconcile counts one reconciled edit and its duration.
func (m *Metrics) RecordReconcile(d time.Duration) {
	if m == nil || !m.initialized {
		return
	}
	ctx := context.Background()
	m.reconcileTotal.Add(ctx, 1)
	m.reconcileDuration.Record(ctx, d.Seconds())
}
