package pool

import "github.com/juju/errors"

// The free list is a Treiber stack threaded through entry.next and
// addressed by slot index. Slots are never freed or reused as anything
// else, so a stale index can only make a CAS fail, never alias memory.
// pop must have a single caller at a time; push may run on any number of
// goroutines concurrently.

// pop removes the most recently pushed free slot. It reports false when
// the list is empty.
func (a *arena[T]) pop() (int, bool) {
	sentinel := uint64(a.count)
	head := a.head.Load()
	for {
		if head == sentinel {
			return 0, false
		}
		next := a.entries[head].next.Load()
		if a.head.CompareAndSwap(head, next) {
			return int(head), true
		}
		// Lost to a concurrent push; re-observe the head before retrying.
		head = a.head.Load()
	}
}

// push returns slot idx to the list. The CAS publishes every write made to
// the slot before it to the goroutine that pops it next.
func (a *arena[T]) push(idx int) {
	head := a.head.Load()
	for {
		a.entries[idx].next.Store(head)
		if a.head.CompareAndSwap(head, uint64(idx)) {
			return
		}
		head = a.head.Load()
	}
}

// walk follows the list from head to the sentinel and returns the free slot
// indices in pop order. It fails on an out of range link or a slot reached
// twice, which covers both duplicates and cycles. The list must be quiescent.
func (a *arena[T]) walk() ([]int, error) {
	sentinel := uint64(a.count)
	seen := make([]bool, a.count)
	var free []int
	for i := a.head.Load(); i != sentinel; i = a.entries[i].next.Load() {
		if i > sentinel {
			return free, errors.Errorf("free list link %d out of range [0, %d]", i, sentinel)
		}
		if seen[i] {
			return free, errors.Errorf("free list reaches slot %d twice", i)
		}
		seen[i] = true
		free = append(free, int(i))
	}
	return free, nil
}
