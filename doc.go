// Package pool implements a fixed-capacity pool of pre-constructed values for Go.
//
// # Overview
//
// A pool builds all of its values up front, in one contiguous arena, and
// lends them out on demand. Values go back to the pool when their checkout
// is released, ready for the next caller. This is useful for:
//
//   - Large buffers that are expensive to allocate and zero
//   - Objects with costly setup that are used briefly and often
//   - Keeping steady-state allocation and GC pressure at zero
//   - Hard upper bounds on how many of a resource exist at once
//
// # Basic Usage
//
//	p := pool.WithCapacity(20, 0, func() []int { return make([]int, 0, 16384) })
//	defer p.Release()
//
//	c, ok := p.Checkout()
//	if !ok {
//		// every value is checked out
//	}
//	defer c.Release()
//
//	buf := c.Value()
//	*buf = append(*buf, 1, 2, 3)
//
// # Extra Bytes
//
// Every slot can carry a fixed number of extra bytes next to its value,
// exposed through Checkout.Extra. Keep metadata in the value and the payload
// bytes in the extra region. The region is zeroed when the pool is built,
// rounded up to the slot alignment, and can be mapped outside the Go heap
// with WithBacking(BackingMmap).
//
// # Reset Policies
//
// A Policy decides what a reused value looks like. OnCheckout runs before
// Checkout hands a value out and OnCheckin runs when a checkout is released:
//
//	pool.WithPolicy(pool.Dirty[T]())                  // never reset
//	pool.WithPolicy(pool.ResetOnCheckout(pool.ClearSlice[int]))
//	pool.WithPolicy(pool.ResetOnCheckin(pool.Zero[Frame]))
//
// Without WithPolicy the pool uses Default: values implementing Resetter
// decide for themselves, values implementing Clearer (Reset()) are cleared
// on checkout, anything else is never reset. CheckoutRaw skips the
// checkout hook.
//
// # Thread Safety
//
// Releasing a checkout is lock-free and safe from any goroutine. Checking
// values out has a single caller at a time; for concurrent checkout use
// SafePool:
//
//	sp := pool.NewSafePool(64, 4096, newFrame)
//	c, ok := sp.Checkout() // safe from any goroutine
//
// # Lifetime
//
// The arena is shared by the Pool and every outstanding Checkout. Releasing
// the Pool does not invalidate live checkouts; the values are destroyed
// (see WithDestroy) once the last holder lets go.
//
// # Important Notes
//
//   - Capacity is fixed; Checkout reports false instead of growing
//   - The pool hands values out LIFO when uncontended
//   - A Checkout may be copied, but only one Release among copies succeeds
//   - Releasing twice returns ErrReleased and leaves the pool intact
//
// # Metrics and Monitoring
//
//	m := p.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Println(m) // pool default: 3/20 in use (15.0%), 480 B arena (24 B per slot, heap)
//
// The same counters are exported through OpenTelemetry; see WithMeterProvider.
package pool
