package boxed

import (
	"iter"
	"unsafe"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/alloc"
)

// Array owns n contiguous values of T stored in one block. Its length is
// fixed at construction.
type Array[T any] struct {
	elems []T
	block alloc.Block
	alloc alloc.Allocator
}

// NewArray stores n copies of value in a block from the Heap allocator.
func NewArray[T any](n int, value T) (*Array[T], error) {
	return NewArrayIn(n, value, nil)
}

// NewArrayIn stores n copies of value in a block from a (Heap when nil).
// Copies are shallow, so value should be a plain value. If allocation fails
// the value is dropped and lost.
func NewArrayIn[T any](n int, value T, a alloc.Allocator) (*Array[T], error) {
	raw, err := NewRawArrayIn[T](n, a)
	if err != nil {
		mem.Drop(&value)
		return nil, err
	}
	for i := range raw.elems {
		raw.elems[i] = value
	}
	return AssumeInitArray(raw), nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.elems) }

// Get returns a pointer to element i. It panics if i is out of range.
func (a *Array[T]) Get(i int) *T { return &a.elems[i] }

// Slice returns the elements as a slice backed by the array's block. It is
// valid until Free.
func (a *Array[T]) Slice() []T { return a.elems }

// All yields each index and element in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.elems {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Allocator returns the allocator the array releases its block to.
func (a *Array[T]) Allocator() alloc.Allocator { return a.alloc }

// UnsafePointer returns the address of the first element without
// transferring ownership.
func (a *Array[T]) UnsafePointer() unsafe.Pointer { return a.block.Ptr() }

// Free drops every element in order and returns the block to the allocator.
func (a *Array[T]) Free() {
	if a.alloc == nil {
		return
	}
	if mem.NeedsDrop[T]() {
		for i := range a.elems {
			mem.Drop(&a.elems[i])
		}
	}
	clear(a.elems)
	a.alloc.Deallocate(a.block)
	*a = Array[T]{}
}

// LeakArray empties a and returns its elements. They are never dropped and
// the block is never released.
func LeakArray[T any](a *Array[T]) []T {
	elems := a.elems
	*a = Array[T]{}
	return elems
}

// RawArray owns storage for n values of T that has not been certified to hold
// values.
type RawArray[T any] struct {
	elems []T
	block alloc.Block
	alloc alloc.Allocator
}

// NewRawArray allocates uninitialized storage for n values from the Heap
// allocator.
func NewRawArray[T any](n int) (*RawArray[T], error) {
	return NewRawArrayIn[T](n, nil)
}

// NewRawArrayIn allocates uninitialized storage for n values from a (Heap
// when nil). The layout size n × size(T) is overflow checked.
func NewRawArrayIn[T any](n int, a alloc.Allocator) (*RawArray[T], error) {
	a = alloc.OrDefault(a)
	l, err := alloc.ArrayOf[T](n)
	if err != nil {
		return nil, err
	}
	blk, err := a.Allocate(l)
	if err != nil {
		return nil, err
	}
	return &RawArray[T]{
		elems: unsafe.Slice((*T)(blk.Ptr()), n),
		block: blk,
		alloc: a,
	}, nil
}

// Len returns the number of slots.
func (r *RawArray[T]) Len() int { return len(r.elems) }

// Write stores value in slot i. It panics if i is out of range.
func (r *RawArray[T]) Write(i int, value T) {
	r.elems[i] = value
}

// Ptr returns the address of slot i for the caller to write through.
func (r *RawArray[T]) Ptr(i int) *T { return &r.elems[i] }

// Free returns the storage to the allocator without dropping anything.
func (r *RawArray[T]) Free() {
	if r.alloc == nil {
		return
	}
	r.alloc.Deallocate(r.block)
	*r = RawArray[T]{}
}

// AssumeInitArray turns r into an initialized Array without copying,
// allocating or default-initializing. r is empty afterwards.
//
// Precondition, not checked: every slot has been validly written. Violating
// it is undefined behaviour.
func AssumeInitArray[T any](r *RawArray[T]) *Array[T] {
	a := &Array[T]{elems: r.elems, block: r.block, alloc: r.alloc}
	*r = RawArray[T]{}
	return a
}
