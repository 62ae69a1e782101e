package pool

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/juju/errors"
	"github.com/stretchr/testify/require"
)

// recoverValue runs f and returns whatever it panicked with.
func recoverValue(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return nil
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		extra     int
		size      int
		natural   int
		requested int
		want      layout
	}{
		{"no extra", 4, 0, 24, 8, 0, layout{align: 8, header: 24, stride: 0, entrySize: 24, total: 0}},
		{"extra rounded up", 4, 10, 24, 8, 0, layout{align: 8, header: 24, stride: 16, entrySize: 40, total: 64}},
		{"extra already aligned", 2, 16, 24, 8, 0, layout{align: 8, header: 24, stride: 16, entrySize: 40, total: 32}},
		{"requested alignment", 4, 10, 24, 8, 64, layout{align: 64, header: 64, stride: 64, entrySize: 128, total: 256}},
		{"requested below natural", 1, 1, 24, 8, 4, layout{align: 8, header: 24, stride: 8, entrySize: 32, total: 8}},
		{"empty", 0, 10, 24, 8, 0, layout{align: 8, header: 24, stride: 16, entrySize: 40, total: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := computeLayout(tt.count, tt.extra, tt.size, tt.natural, tt.requested)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Zero(t, got.entrySize%got.align, "entry size must stay aligned")
		})
	}
}

func TestComputeLayoutRejects(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		extra     int
		natural   int
		requested int
		want      error
	}{
		{"negative count", -1, 0, 8, 0, errors.NotValid},
		{"negative extra", 1, -1, 8, 0, errors.NotValid},
		{"alignment not power of two", 1, 0, 8, 3, errors.NotValid},
		{"negative alignment", 1, 0, 8, -8, errors.NotValid},
		{"degenerate alignment", 1, 0, 0, 0, errors.NotValid},
		{"count too big", MaxCapacity, 0, 8, 0, ErrCapacity},
		{"extra too big", 1, MaxCapacity, 8, 0, ErrCapacity},
		{"total too big", MaxCapacity / 8, 0, 8, 0, ErrCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computeLayout(tt.count, tt.extra, 24, tt.natural, tt.requested)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWithCapacityRejectsHugeCount(t *testing.T) {
	r := recoverValue(func() { WithCapacity(MaxCapacity, 0, func() int { return 0 }) })
	err, ok := r.(error)
	require.True(t, ok, "expected an error panic, got %v", r)
	require.ErrorIs(t, err, ErrCapacity)
}

func TestArenaInitialFreeList(t *testing.T) {
	p := WithCapacity(5, 0, func() int { return 7 })
	free, err := p.a.walk()
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, free)
	for i := range p.a.entries {
		require.Equal(t, 7, p.a.entries[i].data)
		require.Equal(t, uint64(i+1), p.a.entries[i].next.Load())
	}
	require.Equal(t, 5, p.a.constructed)
}

func TestArenaEmpty(t *testing.T) {
	calls := 0
	p := WithCapacity(0, 8, func() int { calls++; return 0 })
	require.Zero(t, calls)
	_, ok := p.Checkout()
	require.False(t, ok, "empty pool must be depleted from birth")
	free, err := p.a.walk()
	require.NoError(t, err)
	require.Empty(t, free)
	p.Release()
}

type tracked struct {
	id int
}

func TestConstructionPanicDestroysBuiltEntries(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("fail at %d", k), func(t *testing.T) {
			calls := 0
			destroyed := map[int]int{}
			init := func() tracked {
				calls++
				if calls == k {
					panic("boom")
				}
				return tracked{id: calls}
			}
			destroy := WithDestroy(func(v *tracked) { destroyed[v.id]++ })

			require.PanicsWithValue(t, "boom", func() {
				WithCapacity(5, 16, init, destroy)
			})

			require.Len(t, destroyed, k-1)
			for id := 1; id < k; id++ {
				require.Equal(t, 1, destroyed[id], "payload %d", id)
			}
			require.Zero(t, destroyed[k], "the failed payload was never built")
		})
	}
}

func TestConstructionErrorDestroysBuiltEntries(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	destroyed := 0
	p, err := New(4, 0, func() (tracked, error) {
		calls++
		if calls == 3 {
			return tracked{}, boom
		}
		return tracked{id: calls}, nil
	}, WithDestroy(func(*tracked) { destroyed++ }))

	require.Nil(t, p)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "initializing slot 2")
	require.Equal(t, 2, destroyed)
}

func TestTeardownWaitsForLastCheckout(t *testing.T) {
	destroyed := map[int]int{}
	next := 0
	p := WithCapacity(3, 0, func() tracked {
		next++
		return tracked{id: next}
	}, WithDestroy(func(v *tracked) { destroyed[v.id]++ }))

	c, ok := p.Checkout()
	require.True(t, ok)
	c.Value().id = 100

	p.Release()
	require.Empty(t, destroyed, "a live checkout keeps the arena alive")
	require.Equal(t, 100, c.Value().id)

	require.NoError(t, c.Release())
	require.Equal(t, map[int]int{100: 1, 2: 1, 3: 1}, destroyed)
	require.True(t, p.a.torn.Load())

	// A second pool release must not tear down again.
	p.Release()
	require.Len(t, destroyed, 3)
}

func TestTeardownZeroesPayloads(t *testing.T) {
	p := WithCapacity(2, 0, func() *tracked { return &tracked{id: 1} })
	a := p.a
	p.Release()
	for i := range a.entries {
		require.Nil(t, a.entries[i].data)
	}
}

func TestUseAfterRelease(t *testing.T) {
	p := WithCapacity(1, 0, func() int { return 0 })
	p.Release()
	require.PanicsWithValue(t, "pool: use after Release()", func() { p.Checkout() })
}

func TestExtraBytes(t *testing.T) {
	p := WithCapacity(1, 10, func() int { return 0 })
	c, ok := p.Checkout()
	require.True(t, ok)

	extra := c.Extra()
	require.GreaterOrEqual(t, len(extra), 10)
	require.Equal(t, p.ExtraBytes(), len(extra))
	require.Equal(t, len(extra), cap(extra))
	for _, b := range extra {
		require.Zero(t, b)
	}

	copy(extra, "hello")
	require.Equal(t, "hello", string(c.Extra()[:5]))
	require.NoError(t, c.Release())

	// Extra bytes are never reset.
	c, ok = p.Checkout()
	require.True(t, ok)
	require.Equal(t, "hello", string(c.Extra()[:5]))
}

func TestExtraBytesDoNotOverlap(t *testing.T) {
	const n = 8
	p := WithCapacity(n, 24, func() int { return 0 })
	var cs []Checkout[int]
	for i := 0; i < n; i++ {
		c, ok := p.Checkout()
		require.True(t, ok)
		for j := range c.Extra() {
			c.Extra()[j] = byte(c.Index())
		}
		cs = append(cs, c)
	}
	for _, c := range cs {
		for _, b := range c.Extra() {
			require.Equal(t, byte(c.Index()), b)
		}
	}
}

func TestExtraBytesAlignment(t *testing.T) {
	for _, align := range []int{8, 16, 64, 256} {
		t.Run(fmt.Sprintf("align-%d", align), func(t *testing.T) {
			p := WithCapacity(4, 3, func() int { return 0 }, WithAlignment(align))
			require.Equal(t, align, p.Alignment())
			require.Zero(t, p.EntrySize()%align)
			for i := 0; i < 4; i++ {
				c, ok := p.Checkout()
				require.True(t, ok)
				addr := uintptr(unsafe.Pointer(&c.Extra()[0]))
				require.Zero(t, addr%uintptr(align), "slot %d extra at %#x", c.Index(), addr)
			}
		})
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, align, want int
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{10, 64, 64},
		{65, 64, 128},
	}
	for _, tt := range tests {
		if got := alignUp(tt.n, tt.align); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}
