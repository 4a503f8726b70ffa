package recid

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/recid-dev/recid/canonical"
)

// Option configures an Assigner.
type Option func(*Assigner)

// WithLogger sets a custom structured logger. If not provided, slog.Default
// is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assigner) {
		a.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for per-batch spans. If not
// provided, the tracer is taken from the global provider (a no-op unless the
// host application installed one).
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Assigner) {
		a.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter backing the assigner's counters and
// duration histogram. If not provided, the meter is taken from the global
// provider.
func WithMeter(meter metric.Meter) Option {
	return func(a *Assigner) {
		a.meter = meter
	}
}

// WithConcurrency sets how many records are canonicalized and hashed in
// parallel. Per-record work is independent, so any value is safe; output
// order always matches input order. Values below 2 keep the single-goroutine
// path.
func WithConcurrency(n int) Option {
	return func(a *Assigner) {
		a.concurrency = n
	}
}

// WithDictionary sets the categorical dictionary used to resolve coded
// values during canonicalization. Required when batches carry
// types.Categorical values.
func WithDictionary(dict *canonical.Dictionary) Option {
	return func(a *Assigner) {
		a.dictionary = dict
	}
}
