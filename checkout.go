package pool

// Checkout is a handle to one checked-out slot. It grants exclusive use of
// the slot's value and extra bytes until Release is called.
//
// Checkout is a small value and may be copied freely; all copies refer to
// the same checkout and exactly one Release among them succeeds. Using any
// copy after a successful Release panics.
type Checkout[T any] struct {
	a   *arena[T]
	idx int
	gen uint64
}

// open marks slot idx as checked out and takes a share of the arena.
func (a *arena[T]) open(idx int) Checkout[T] {
	gen := a.entries[idx].gen.Add(1)
	a.retain()
	a.debug.recordAcquire(idx)
	a.recordCheckout()
	return Checkout[T]{a: a, idx: idx, gen: gen}
}

// resetOnCheckout applies the checkout hook to c's value. If the hook
// panics the slot goes back to the free list before the panic continues.
func (a *arena[T]) resetOnCheckout(c Checkout[T]) {
	done := false
	defer func() {
		if !done {
			_ = a.checkin(c.idx, c.gen)
		}
	}()
	a.policy.OnCheckout(&a.entries[c.idx].data)
	done = true
}

// checkin returns slot idx to the free list if gen still names the live
// checkout of that slot.
func (a *arena[T]) checkin(idx int, gen uint64) error {
	e := &a.entries[idx]
	if !e.gen.CompareAndSwap(gen, gen+1) {
		a.log.Error(ErrReleased, "double release", "slot", idx)
		return ErrReleased
	}
	a.policy.OnCheckin(&e.data)
	a.debug.recordRelease(idx)
	a.push(idx)
	a.recordCheckin()
	a.release()
	return nil
}

// Valid reports whether c still holds its slot.
func (c Checkout[T]) Valid() bool {
	return c.a != nil && c.a.entries[c.idx].gen.Load() == c.gen
}

// Value returns a pointer to the checked-out value. The pointer must not be
// used after Release.
func (c Checkout[T]) Value() *T {
	c.mustBeLive()
	return &c.a.entries[c.idx].data
}

// Extra returns the slot's extra bytes. The slice is exactly ExtraBytes
// long, zeroed when the pool is built, and keeps whatever was last written
// to it across checkouts.
func (c Checkout[T]) Extra() []byte {
	c.mustBeLive()
	return c.a.extraBytes(c.idx)
}

// Index returns the slot index backing the checkout, or -1 for the zero
// Checkout returned by a depleted pool.
func (c Checkout[T]) Index() int {
	if c.a == nil {
		return -1
	}
	return c.idx
}

// Release returns the slot to the pool, applying the pool's checkin reset.
// It returns ErrReleased if this checkout was already released.
func (c Checkout[T]) Release() error {
	if c.a == nil {
		return ErrReleased
	}
	return c.a.checkin(c.idx, c.gen)
}

func (c Checkout[T]) mustBeLive() {
	if !c.Valid() {
		panic("pool: use of released checkout")
	}
}
