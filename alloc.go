package pool

import (
	"sync/atomic"
	"unsafe"

	"github.com/juju/errors"
)

// Backing selects where an arena's extra-byte region is allocated.
type Backing string

const (
	// BackingHeap allocates the region from the Go heap.
	BackingHeap Backing = "heap"
	// BackingMmap maps the region as anonymous private memory outside the
	// Go heap. Only available on platforms with mmap. The mapping is
	// removed when the arena is torn down; a pool that is never released,
	// or a checkout that is never released, keeps it mapped for the life
	// of the process.
	BackingMmap Backing = "mmap"
)

// backing owns the raw memory of an arena's extra-byte region.
type backing struct {
	buf   []byte // raw allocation
	bytes []byte // aligned view of exactly the requested size
	kind  Backing
	unmap func([]byte) error
	freed atomic.Bool
}

// allocBacking returns a zeroed region of size bytes whose first byte is
// aligned to align.
func allocBacking(size, align int, kind Backing) (*backing, error) {
	if kind == "" {
		kind = BackingHeap
	}
	switch kind {
	case BackingHeap:
		if size == 0 {
			return &backing{kind: kind}, nil
		}
		return heapBacking(size, align), nil
	case BackingMmap:
		if size == 0 {
			return &backing{kind: kind}, nil
		}
		return mapBacking(size, align)
	default:
		return nil, errors.NotValidf("backing %q", kind)
	}
}

func heapBacking(size, align int) *backing {
	buf := make([]byte, size+align)
	return &backing{
		buf:   buf,
		bytes: alignSlice(buf, size, align),
		kind:  BackingHeap,
	}
}

// mapped reports whether the region lives outside the Go heap.
func (b *backing) mapped() bool {
	return b.unmap != nil && b.buf != nil
}

// free releases the region. It is safe to call more than once.
func (b *backing) free() error {
	if b == nil || b.freed.Swap(true) {
		return nil
	}
	if b.mapped() {
		return errors.Annotate(b.unmap(b.buf), "unmapping arena")
	}
	return nil
}

// alignSlice returns the size-byte window of buf that starts on an align
// boundary. buf must have at least align spare bytes.
func alignSlice(buf []byte, size, align int) []byte {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	off := int(alignPtr(p, uintptr(align)) - p)
	return buf[off : off+size : off+size]
}

// alignPtr aligns p up to align, which must be a power of two.
func alignPtr(p, align uintptr) uintptr {
	mask := align - 1
	return (p + mask) & ^mask
}
