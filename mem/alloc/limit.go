package alloc

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Limit wraps another allocator with a byte budget. Requests that would push
// the bytes in use above the budget fail with ErrBudget without reaching the
// inner allocator.
//
// Limit is not safe for concurrent use.
type Limit struct {
	inner Allocator
	max   uintptr
	used  uintptr
}

// NewLimit returns an allocator that forwards to inner while at most max
// bytes are in use. A nil inner allocator means Heap.
func NewLimit(inner Allocator, max uintptr) *Limit {
	return &Limit{inner: OrDefault(inner), max: max}
}

// Allocate implements Allocator.
func (la *Limit) Allocate(l Layout) (Block, error) {
	if err := la.reserve(l, l.Size); err != nil {
		return Block{}, err
	}
	b, err := la.inner.Allocate(l)
	if err != nil {
		return Block{}, err
	}
	la.used += l.Size
	return b, nil
}

// Deallocate implements Allocator.
func (la *Limit) Deallocate(b Block) {
	if b.IsZero() {
		return
	}
	la.inner.Deallocate(b)
	if b.layout.Size > la.used {
		la.used = 0
		return
	}
	la.used -= b.layout.Size
}

// Grow implements Grower by forwarding to the inner allocator when it can
// grow in place.
func (la *Limit) Grow(b Block, l Layout) (Block, error) {
	g, ok := la.inner.(Grower)
	if !ok {
		return Block{}, Fail(l, ErrNotInPlace)
	}
	if l.Size < b.layout.Size {
		return Block{}, Fail(l, fmt.Errorf("%w: cannot shrink from %d to %d bytes", ErrLayout, b.layout.Size, l.Size))
	}
	delta := l.Size - b.layout.Size
	if err := la.reserve(l, delta); err != nil {
		return Block{}, err
	}
	nb, err := g.Grow(b, l)
	if err != nil {
		return Block{}, err
	}
	la.used += delta
	return nb, nil
}

// CanGrow reports whether the inner allocator can grow in place.
func (la *Limit) CanGrow() bool { return CanGrow(la.inner) }

// Used returns the bytes currently allocated through la.
func (la *Limit) Used() uintptr { return la.used }

// Max returns the budget.
func (la *Limit) Max() uintptr { return la.max }

// Remaining returns the bytes still available under the budget.
func (la *Limit) Remaining() uintptr { return la.max - la.used }

// Inner returns the wrapped allocator.
func (la *Limit) Inner() Allocator { return la.inner }

func (la *Limit) reserve(l Layout, n uintptr) error {
	if n > la.max-la.used {
		return Fail(l, fmt.Errorf("%w: %s in use, %s requested, budget %s", ErrBudget,
			humanize.IBytes(uint64(la.used)), humanize.IBytes(uint64(n)), humanize.IBytes(uint64(la.max))))
	}
	return nil
}

// Compile-time interface checks
var (
	_ Allocator = (*Limit)(nil)
	_ Grower    = (*Limit)(nil)
)
