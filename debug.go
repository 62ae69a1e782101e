//go:build pooldebug

package pool

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
)

// debugState records where every outstanding checkout was taken.
type debugState struct {
	name   string
	mu     sync.Mutex
	stacks map[int]string
}

func newDebugState(name string) *debugState {
	return &debugState{
		name:   name,
		stacks: make(map[int]string),
	}
}

func (d *debugState) recordAcquire(idx int) {
	stack := string(debug.Stack())
	d.mu.Lock()
	d.stacks[idx] = stack
	d.mu.Unlock()
}

func (d *debugState) recordRelease(idx int) {
	d.mu.Lock()
	delete(d.stacks, idx)
	d.mu.Unlock()
}

func (d *debugState) activeStacks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stacks) == 0 {
		return nil
	}
	slots := make([]int, 0, len(d.stacks))
	for idx := range d.stacks {
		slots = append(slots, idx)
	}
	sort.Ints(slots)
	out := make([]string, 0, len(slots))
	for _, idx := range slots {
		out = append(out, fmt.Sprintf("pool %s slot %d checked out at:\n%s", d.name, idx, d.stacks[idx]))
	}
	return out
}
