// Package vec provides Vec, a growable sequence whose growth is fallible.
//
// # Growth
//
// Vec grows by exactly what each call needs: a Push on a full Vec reserves
// one slot, TryReserve(n) reserves exactly n. There is no doubling, so n
// Pushes without a prior TryReserve cost O(n²) copying in the worst case, in
// exchange for no over-allocation. Reserve up front when the final size is
// known.
//
// When the allocator implements alloc.Grower the block is extended in place
// where possible; otherwise a new block is allocated, the elements are moved
// and the old block is released.
//
// # Failure
//
// Growth has a strong failure guarantee: when TryReserve, Push or Insert
// fail, the Vec is exactly as it was before the call. Push and Insert return
// a *ValueError[T] holding the rejected value; use Rejected to take it back.
//
// # Iteration
//
// All, Values and Pointers return iterators that read the Vec while they run.
// The Vec must not be structurally modified (Push, Insert, Remove, Clear...)
// until the loop over an iterator has finished.
package vec

import (
	"fmt"
	"iter"
	"math"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/alloc"
)

// Vec is a growable sequence of T stored contiguously in one block.
//
// The zero value is an empty Vec using the Heap allocator.
type Vec[T any] struct {
	// buf views the whole block: len(buf) is the capacity. Slots [0,n) hold
	// values, [n,len(buf)) are allocated but unspecified.
	buf   []T
	n     int
	block alloc.Block
	alloc alloc.Allocator
}

// New returns an empty Vec using the Heap allocator. It does not allocate.
func New[T any]() *Vec[T] {
	return NewIn[T](nil)
}

// NewIn returns an empty Vec using a (Heap when nil). It does not allocate.
func NewIn[T any](a alloc.Allocator) *Vec[T] {
	return &Vec[T]{alloc: alloc.OrDefault(a)}
}

// WithCapacity returns an empty Vec with room for exactly n elements, using
// the Heap allocator.
func WithCapacity[T any](n int) (*Vec[T], error) {
	return WithCapacityIn[T](n, nil)
}

// WithCapacityIn returns an empty Vec with room for exactly n elements,
// allocated from a (Heap when nil). On failure nothing stays allocated.
func WithCapacityIn[T any](n int, a alloc.Allocator) (*Vec[T], error) {
	v := NewIn[T](a)
	if err := v.TryReserve(n); err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return v.n }

// Cap returns the number of elements the current block can hold.
func (v *Vec[T]) Cap() int { return len(v.buf) }

// IsEmpty reports whether the Vec has no elements.
func (v *Vec[T]) IsEmpty() bool { return v.n == 0 }

// Allocator returns the allocator backing the Vec.
func (v *Vec[T]) Allocator() alloc.Allocator { return v.allocator() }

// Slice returns the elements [0,Len) as a slice backed by the Vec's block.
// Elements may be read and written through it. It is invalidated by any
// operation that changes the length or capacity. Its capacity equals its
// length, so append on it never writes into the Vec's reserved slots.
func (v *Vec[T]) Slice() []T { return v.buf[:v.n:v.n] }

// TryReserve ensures room for at least additional more elements. If the
// capacity already suffices it does nothing. Otherwise it grows the block to
// exactly Len()+additional. On error the Vec is unchanged.
func (v *Vec[T]) TryReserve(additional int) error {
	if additional < 0 {
		return alloc.Fail(alloc.Layout{}, fmt.Errorf("%w: negative reservation %d", alloc.ErrLayout, additional))
	}
	need, ok := buf.AddOverflowSafe(uintptr(v.n), uintptr(additional))
	if !ok || need > math.MaxInt {
		return alloc.Fail(alloc.Layout{}, fmt.Errorf("%w: capacity overflow: %d + %d", alloc.ErrLayout, v.n, additional))
	}
	if int(need) <= len(v.buf) {
		return nil
	}
	return v.grow(int(need))
}

// grow replaces the block with one holding exactly newCap elements. Nothing
// is modified until the new block is in hand.
func (v *Vec[T]) grow(newCap int) error {
	l, err := alloc.ArrayOf[T](newCap)
	if err != nil {
		return err
	}
	a := v.allocator()

	if !v.block.IsZero() {
		if g, ok := a.(alloc.Grower); ok && alloc.CanGrow(a) {
			if blk, err := g.Grow(v.block, l); err == nil {
				v.block = blk
				v.buf = unsafe.Slice((*T)(blk.Ptr()), newCap)
				return nil
			}
		}
	}

	blk, err := a.Allocate(l)
	if err != nil {
		return err
	}
	nb := unsafe.Slice((*T)(blk.Ptr()), newCap)
	copy(nb, v.buf[:v.n])

	if !v.block.IsZero() {
		clear(v.buf[:v.n])
		a.Deallocate(v.block)
	}
	v.block, v.buf = blk, nb
	return nil
}

// Push appends value. When the Vec is full it first reserves one more slot;
// if that fails the returned *ValueError[T] carries value back and the Vec
// is unchanged.
func (v *Vec[T]) Push(value T) error {
	if v.n == len(v.buf) {
		if err := v.TryReserve(1); err != nil {
			return &ValueError[T]{Value: value, Err: err}
		}
	}
	v.buf[v.n] = value
	v.n++
	return nil
}

// Insert places value at index, shifting [index,Len) one slot right.
// index > Len() is rejected with ErrIndexOutOfRange before anything is
// allocated. Failures return a *ValueError[T] carrying value back and leave
// the Vec unchanged.
func (v *Vec[T]) Insert(index int, value T) error {
	if index < 0 || index > v.n {
		return &ValueError[T]{
			Value: value,
			Err:   fmt.Errorf("%w: insert at %d, len %d", ErrIndexOutOfRange, index, v.n),
		}
	}
	if v.n == len(v.buf) {
		if err := v.TryReserve(1); err != nil {
			return &ValueError[T]{Value: value, Err: err}
		}
	}
	copy(v.buf[index+1:v.n+1], v.buf[index:v.n])
	v.buf[index] = value
	v.n++
	return nil
}

// Remove takes out the element at index, shifting [index+1,Len) one slot
// left. It returns false, and changes nothing, when index is out of range.
func (v *Vec[T]) Remove(index int) (T, bool) {
	var zero T
	if index < 0 || index >= v.n {
		return zero, false
	}
	out := v.buf[index]
	copy(v.buf[index:v.n-1], v.buf[index+1:v.n])
	v.n--
	v.buf[v.n] = zero
	return out, true
}

// SwapRemove takes out the element at index and moves the last element into
// its place. It does not preserve order but runs in O(1). It returns false
// when index is out of range.
func (v *Vec[T]) SwapRemove(index int) (T, bool) {
	var zero T
	if index < 0 || index >= v.n {
		return zero, false
	}
	out := v.buf[index]
	last := v.n - 1
	v.buf[index] = v.buf[last]
	v.buf[last] = zero
	v.n = last
	return out, true
}

// Pop takes out the last element. It returns false when the Vec is empty.
func (v *Vec[T]) Pop() (T, bool) {
	var zero T
	if v.n == 0 {
		return zero, false
	}
	v.n--
	out := v.buf[v.n]
	v.buf[v.n] = zero
	return out, true
}

// Clear drops every element in order and sets the length to zero. The block
// and capacity are kept.
func (v *Vec[T]) Clear() {
	if mem.NeedsDrop[T]() {
		for i := range v.n {
			mem.Drop(&v.buf[i])
		}
	}
	clear(v.buf[:v.n])
	v.n = 0
}

// Free drops every element in order and returns the block to the allocator.
// The Vec is empty with zero capacity afterwards and can be reused.
func (v *Vec[T]) Free() {
	v.Clear()
	if !v.block.IsZero() {
		v.allocator().Deallocate(v.block)
	}
	v.buf, v.block = nil, alloc.Block{}
}

// All yields each index and element in order.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Values yields each element in order.
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(v.buf[i]) {
				return
			}
		}
	}
}

// Pointers yields each index and a pointer to its element, for in-place
// mutation.
func (v *Vec[T]) Pointers() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(i, &v.buf[i]) {
				return
			}
		}
	}
}

func (v *Vec[T]) allocator() alloc.Allocator {
	if v.alloc == nil {
		v.alloc = alloc.Heap{}
	}
	return v.alloc
}
