// Package pool implements a fixed-capacity pool of pre-constructed values
// backed by a single contiguous arena and an index-addressed lock-free free list.
package pool

import (
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/go-logr/logr"
	"github.com/juju/errors"
	"golang.org/x/sys/cpu"
)

// MaxCapacity bounds both the number of slots and the total arena size in bytes.
const MaxCapacity = math.MaxInt >> 1

// entry is one pooled slot. Its extra bytes live in the arena's byte region
// at the same index.
type entry[T any] struct {
	data T
	next atomic.Uint64 // index of the next free slot; count marks the end
	gen  atomic.Uint64 // even while free, odd while checked out
}

// layout describes the physical shape of every slot in an arena.
type layout struct {
	align     int // effective alignment of a slot
	header    int // size of entry[T], rounded up to align
	stride    int // padded extra bytes per slot
	entrySize int // header + stride
	total     int // size of the extra-byte region (stride * count)
}

// arena owns the slots of one pool. It is shared by the Pool and every
// outstanding Checkout and torn down when the last of them lets go.
type arena[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Uint64
	_    cpu.CacheLinePad

	entries     []entry[T]
	mem         *backing
	extra       []byte
	layout      layout
	count       int
	constructed int

	refs atomic.Int64
	torn atomic.Bool

	name    string
	policy  Policy[T]
	destroy func(*T)
	log     logr.Logger
	stats   counters
	inst    *instruments
	debug   *debugState
}

// computeLayout validates the requested shape and derives slot sizes.
// natural is the alignment of entry[T]; requested is 0 when the caller has
// no alignment preference.
func computeLayout(count, extra, size, natural, requested int) (layout, error) {
	if count < 0 {
		return layout{}, errors.NotValidf("capacity %d", count)
	}
	if extra < 0 {
		return layout{}, errors.NotValidf("extra byte count %d", extra)
	}
	if requested < 0 || requested&(requested-1) != 0 {
		return layout{}, errors.NotValidf("alignment %d", requested)
	}
	align := max(natural, requested)
	if align <= 0 {
		return layout{}, errors.NotValidf("alignment %d", align)
	}
	if count >= MaxCapacity {
		return layout{}, errors.Annotatef(ErrCapacity, "%d slots", count)
	}
	if extra > MaxCapacity-align || size > MaxCapacity-align {
		return layout{}, errors.Annotatef(ErrCapacity, "%d extra bytes per slot", extra)
	}

	header := alignUp(size, align)
	stride := alignUp(extra, align)
	entrySize := header + stride

	hi, lo := bits.Mul64(uint64(entrySize), uint64(count))
	if hi != 0 || lo >= MaxCapacity {
		return layout{}, errors.Annotatef(ErrCapacity, "%d slots of %d bytes", count, entrySize)
	}

	return layout{
		align:     align,
		header:    header,
		stride:    stride,
		entrySize: entrySize,
		total:     stride * count,
	}, nil
}

// newArena allocates the arena and constructs every payload in ascending
// slot order. If init fails, by error or by panic, the payloads built so far
// are destroyed exactly once and the backing memory is freed before the
// failure reaches the caller.
func newArena[T any](count, extra int, init func() (T, error), s *settings) (*arena[T], error) {
	var zero entry[T]
	lay, err := computeLayout(count, extra, int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)), s.alignment)
	if err != nil {
		return nil, err
	}
	policy, err := resolvePolicy[T](s.policy)
	if err != nil {
		return nil, err
	}
	destroy, err := resolveDestroy[T](s.destroy)
	if err != nil {
		return nil, err
	}
	mem, err := allocBacking(lay.total, lay.align, s.backing)
	if err != nil {
		return nil, errors.Annotatef(err, "allocating %d byte arena", lay.total)
	}

	a := &arena[T]{
		entries: make([]entry[T], count),
		mem:     mem,
		extra:   mem.bytes,
		layout:  lay,
		count:   count,
		name:    s.name,
		policy:  policy,
		destroy: destroy,
		log:     s.logger.WithValues("pool", s.name),
		inst:    newInstruments(s.meterProvider, s.name),
		debug:   newDebugState(s.name),
	}
	a.refs.Store(1)

	built := false
	defer func() {
		if !built {
			a.unwind()
		}
	}()

	for i := 0; i < count; i++ {
		v, err := init()
		if err != nil {
			a.log.Error(err, "initializer failed", "slot", i)
			return nil, errors.Annotatef(err, "initializing slot %d", i)
		}
		e := &a.entries[i]
		e.data = v
		e.next.Store(uint64(i + 1))
		a.constructed++
	}

	// An empty arena is depleted from birth: head 0 is also the sentinel.
	a.head.Store(0)
	built = true

	a.log.V(1).Info("arena constructed",
		"count", count,
		"entrySize", lay.entrySize,
		"extra", lay.stride,
		"align", lay.align,
		"backing", mem.kind)
	return a, nil
}

// unwind releases a partially constructed arena.
func (a *arena[T]) unwind() {
	a.torn.Store(true)
	a.destroyAll()
	if err := a.mem.free(); err != nil {
		a.log.Error(err, "freeing arena memory")
	}
	a.log.V(1).Info("construction aborted", "constructed", a.constructed, "count", a.count)
}

// retain adds a share of the arena.
func (a *arena[T]) retain() {
	a.refs.Add(1)
}

// release drops a share of the arena and tears it down on the last one.
func (a *arena[T]) release() {
	if a.refs.Add(-1) == 0 {
		a.teardown()
	}
}

func (a *arena[T]) teardown() {
	if a.torn.Swap(true) {
		return
	}
	a.destroyAll()
	if err := a.mem.free(); err != nil {
		a.log.Error(err, "freeing arena memory")
	}
	a.log.V(1).Info("arena torn down", "count", a.count)
}

// destroyAll runs the destroy hook once for every constructed payload and
// zeroes it so nothing it references stays reachable.
func (a *arena[T]) destroyAll() {
	var zero T
	for i := 0; i < a.constructed; i++ {
		e := &a.entries[i]
		if a.destroy != nil {
			a.destroy(&e.data)
		}
		e.data = zero
	}
}

// extraBytes returns the extra-byte view of slot idx, clipped so that it
// cannot be grown into the neighbouring slot.
func (a *arena[T]) extraBytes(idx int) []byte {
	off := idx * a.layout.stride
	end := off + a.layout.stride
	return a.extra[off:end:end]
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align int) int {
	mask := align - 1
	return (n + mask) &^ mask
}
