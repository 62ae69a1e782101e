package pool

import (
	"sync/atomic"

	"github.com/juju/errors"
)

// Pool is a fixed-capacity store of pre-constructed values. Values are
// checked out with Checkout and go back to the pool when the returned
// handle is released, from any goroutine.
//
// Checkout and CheckoutRaw must not be called concurrently; a concurrent
// call panics. Wrap the pool in a SafePool when several goroutines need to
// check values out. Releasing checkouts is lock-free and always safe to do
// concurrently.
type Pool[T any] struct {
	a      *arena[T]
	busy   atomic.Bool
	closed atomic.Bool
}

// WithCapacity builds a pool of count values, each created by init and each
// followed by extra bytes of side storage. extra is rounded up to the slot
// alignment.
//
// Invalid sizes panic with an error satisfying errors.Is(err, ErrCapacity)
// or errors.Is(err, errors.NotValid). A panic from init propagates after
// the values already built have been destroyed.
func WithCapacity[T any](count, extra int, init func() T, opts ...Option) *Pool[T] {
	if init == nil {
		panic(errors.NotValidf("nil initializer"))
	}
	a, err := newArena(count, extra, func() (T, error) { return init(), nil }, newSettings(opts))
	if err != nil {
		panic(err)
	}
	return &Pool[T]{a: a}
}

// New is WithCapacity for initializers that can fail. The first error from
// init aborts construction; values already built are destroyed and no pool
// is returned.
func New[T any](count, extra int, init func() (T, error), opts ...Option) (*Pool[T], error) {
	if init == nil {
		return nil, errors.NotValidf("nil initializer")
	}
	a, err := newArena(count, extra, init, newSettings(opts))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Pool[T]{a: a}, nil
}

// Checkout takes a value out of the pool after applying the pool's
// checkout reset. It reports false when every value is checked out.
func (p *Pool[T]) Checkout() (Checkout[T], bool) {
	return p.checkout(true)
}

// CheckoutRaw is Checkout without the checkout reset: the value is exactly
// as it was when last released.
func (p *Pool[T]) CheckoutRaw() (Checkout[T], bool) {
	return p.checkout(false)
}

func (p *Pool[T]) checkout(reset bool) (Checkout[T], bool) {
	p.panicIfReleased()
	if !p.busy.CompareAndSwap(false, true) {
		panic("pool: concurrent Checkout; use SafePool to share a pool between goroutines")
	}
	idx, ok := p.a.pop()
	p.busy.Store(false)
	if !ok {
		p.a.recordDepleted()
		return Checkout[T]{}, false
	}

	c := p.a.open(idx)
	if reset {
		p.a.resetOnCheckout(c)
	}
	return c, true
}

// Release drops the pool's hold on its values. Outstanding checkouts stay
// usable; the values are destroyed once the last of them is released.
// Any further Checkout panics.
func (p *Pool[T]) Release() {
	if p.closed.Swap(true) {
		return
	}
	p.a.release()
}

// Outstanding returns the stack of every live checkout when built with the
// pooldebug tag, and nil otherwise.
func (p *Pool[T]) Outstanding() []string {
	return p.a.debug.activeStacks()
}

// panicIfReleased panics if the pool has been released.
func (p *Pool[T]) panicIfReleased() {
	if p.closed.Load() {
		panic("pool: use after Release()")
	}
}
