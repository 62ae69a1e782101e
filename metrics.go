package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/pavanmanishd/pool"

// counters are the pool's own running totals, kept regardless of whether
// any meter provider is installed.
type counters struct {
	checkouts  atomic.Uint64
	checkins   atomic.Uint64
	depletions atomic.Uint64
}

// instruments mirrors the counters into OpenTelemetry.
type instruments struct {
	checkouts  metric.Int64Counter
	checkins   metric.Int64Counter
	depletions metric.Int64Counter
	inUse      metric.Int64UpDownCounter
	attrs      metric.MeasurementOption
}

func newInstruments(mp metric.MeterProvider, name string) *instruments {
	meter := mp.Meter(instrumentationName)
	inst := &instruments{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("pool.name", name))),
	}
	inst.checkouts, _ = meter.Int64Counter("pool.checkouts",
		metric.WithDescription("Number of values checked out of the pool"),
		metric.WithUnit("{checkout}"))
	inst.checkins, _ = meter.Int64Counter("pool.checkins",
		metric.WithDescription("Number of values returned to the pool"),
		metric.WithUnit("{checkin}"))
	inst.depletions, _ = meter.Int64Counter("pool.depletions",
		metric.WithDescription("Number of checkouts refused because the pool was empty"),
		metric.WithUnit("{checkout}"))
	inst.inUse, _ = meter.Int64UpDownCounter("pool.in_use",
		metric.WithDescription("Number of values currently checked out"),
		metric.WithUnit("{value}"))
	return inst
}

func (a *arena[T]) recordCheckout() {
	a.stats.checkouts.Add(1)
	ctx := context.Background()
	a.inst.checkouts.Add(ctx, 1, a.inst.attrs)
	a.inst.inUse.Add(ctx, 1, a.inst.attrs)
}

func (a *arena[T]) recordCheckin() {
	a.stats.checkins.Add(1)
	ctx := context.Background()
	a.inst.checkins.Add(ctx, 1, a.inst.attrs)
	a.inst.inUse.Add(ctx, -1, a.inst.attrs)
}

func (a *arena[T]) recordDepleted() {
	a.stats.depletions.Add(1)
	a.inst.depletions.Add(context.Background(), 1, a.inst.attrs)
}

// Cap returns the number of slots in the pool.
func (p *Pool[T]) Cap() int {
	return p.a.count
}

// InUse returns the number of values currently checked out.
func (p *Pool[T]) InUse() int {
	// Load checkins first so a concurrent checkin cannot push the result below zero.
	in := p.a.stats.checkins.Load()
	out := p.a.stats.checkouts.Load()
	return int(out - in)
}

// Available returns the number of values that can be checked out now.
func (p *Pool[T]) Available() int {
	return p.a.count - p.InUse()
}

// Utilization returns the ratio of checked-out values to capacity (0.0 to 1.0).
// Returns 0.0 for an empty pool.
func (p *Pool[T]) Utilization() float64 {
	if p.a.count == 0 {
		return 0
	}
	return float64(p.InUse()) / float64(p.a.count)
}

// ExtraBytes returns the length of every checkout's Extra slice.
func (p *Pool[T]) ExtraBytes() int {
	return p.a.layout.stride
}

// EntrySize returns the size in bytes of one slot, header plus extra bytes.
func (p *Pool[T]) EntrySize() int {
	return p.a.layout.entrySize
}

// Alignment returns the effective slot alignment.
func (p *Pool[T]) Alignment() int {
	return p.a.layout.align
}

// Metrics returns a snapshot of pool statistics.
func (p *Pool[T]) Metrics() PoolMetrics {
	return PoolMetrics{
		Name:        p.a.name,
		Capacity:    p.Cap(),
		InUse:       p.InUse(),
		Available:   p.Available(),
		Utilization: p.Utilization(),
		Checkouts:   p.a.stats.checkouts.Load(),
		Checkins:    p.a.stats.checkins.Load(),
		Depletions:  p.a.stats.depletions.Load(),
		EntrySize:   p.EntrySize(),
		ExtraBytes:  p.ExtraBytes(),
		Alignment:   p.Alignment(),
		ArenaBytes:  p.EntrySize() * p.Cap(),
		Backing:     p.a.mem.kind,
	}
}

// PoolMetrics contains statistical information about a pool.
type PoolMetrics struct {
	Name        string
	Capacity    int     // Number of slots
	InUse       int     // Values currently checked out
	Available   int     // Values ready to be checked out
	Utilization float64 // Ratio of in use to capacity (0.0-1.0)
	Checkouts   uint64  // Successful checkouts since construction
	Checkins    uint64  // Releases since construction
	Depletions  uint64  // Checkouts refused for lack of a free value
	EntrySize   int     // Bytes per slot, header plus extra
	ExtraBytes  int     // Extra bytes per slot after alignment
	Alignment   int     // Slot alignment
	ArenaBytes  int     // EntrySize * Capacity
	Backing     Backing // Where the extra-byte region lives
}

func (m PoolMetrics) String() string {
	return fmt.Sprintf("pool %s: %d/%d in use (%.1f%%), %s arena (%s per slot, %s)",
		m.Name, m.InUse, m.Capacity, m.Utilization*100,
		humanize.IBytes(uint64(m.ArenaBytes)), humanize.IBytes(uint64(m.EntrySize)), m.Backing)
}
