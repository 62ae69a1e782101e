package pool

import (
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Option configures a pool at construction.
type Option func(*settings)

type settings struct {
	name          string
	alignment     int
	backing       Backing
	logger        logr.Logger
	meterProvider metric.MeterProvider
	policy        any
	destroy       any
}

func newSettings(opts []Option) *settings {
	s := &settings{
		name:    "default",
		backing: BackingHeap,
		logger:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meterProvider == nil {
		s.meterProvider = otel.GetMeterProvider()
	}
	return s
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithAlignment raises the slot alignment to n bytes. n must be a power of
// two; it never lowers the natural alignment of the slot.
func WithAlignment(n int) Option {
	return func(s *settings) { s.alignment = n }
}

// WithBacking selects where the extra-byte region is allocated.
func WithBacking(b Backing) Option {
	return func(s *settings) { s.backing = b }
}

// WithLogger sets the logger. Construction and teardown log at V(1).
func WithLogger(l logr.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMeterProvider sets the provider for the pool's instruments. The
// global provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *settings) { s.meterProvider = mp }
}

// WithPolicy sets the reset policy. Without it the pool uses Default.
func WithPolicy[T any](p Policy[T]) Option {
	return func(s *settings) { s.policy = p }
}

// WithDestroy sets a hook run exactly once on every constructed value when
// the pool is torn down, or when construction is aborted.
func WithDestroy[T any](fn func(*T)) Option {
	return func(s *settings) { s.destroy = fn }
}
