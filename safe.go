package pool

import "sync"

// SafePool is a mutex-protected wrapper around Pool for concurrent checkout.
// Releasing checkouts never takes the mutex.
type SafePool[T any] struct {
	mu sync.Mutex
	p  *Pool[T]
}

// NewSafePool creates a pool like WithCapacity that any number of
// goroutines may check values out of.
func NewSafePool[T any](count, extra int, init func() T, opts ...Option) *SafePool[T] {
	return &SafePool[T]{p: WithCapacity(count, extra, init, opts...)}
}

// Checkout thread-safely takes a value out of the pool, applying the
// checkout reset.
func (s *SafePool[T]) Checkout() (Checkout[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Checkout()
}

// CheckoutRaw thread-safely takes a value out of the pool without resetting it.
func (s *SafePool[T]) CheckoutRaw() (Checkout[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.CheckoutRaw()
}

// Release thread-safely drops the pool's hold on its values.
func (s *SafePool[T]) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Release()
}

// Cap returns the number of slots in the pool.
func (s *SafePool[T]) Cap() int {
	return s.p.Cap()
}

// InUse returns the number of values currently checked out.
func (s *SafePool[T]) InUse() int {
	return s.p.InUse()
}

// Metrics returns a snapshot of pool statistics.
func (s *SafePool[T]) Metrics() PoolMetrics {
	return s.p.Metrics()
}
