package boxed

import (
	"github.com/joshuapare/memkit/mem/alloc"
)

// RawBox owns storage for one T that has not been certified to hold a value.
// Depending on the allocator the storage may be zeroed or may hold stale
// bytes.
type RawBox[T any] struct {
	ptr   *T
	block alloc.Block
	alloc alloc.Allocator
}

// NewRaw allocates uninitialized storage for a T from the Heap allocator.
func NewRaw[T any]() (*RawBox[T], error) {
	return NewRawIn[T](nil)
}

// NewRawIn allocates uninitialized storage for a T from a (Heap when nil).
func NewRawIn[T any](a alloc.Allocator) (*RawBox[T], error) {
	a = alloc.OrDefault(a)
	blk, err := a.Allocate(alloc.LayoutOf[T]())
	if err != nil {
		return nil, err
	}
	return &RawBox[T]{ptr: (*T)(blk.Ptr()), block: blk, alloc: a}, nil
}

// Ptr returns the storage address for the caller to write through. Reading
// through it before a full value has been written is undefined behaviour.
func (r *RawBox[T]) Ptr() *T { return r.ptr }

// Write stores a complete value and returns its address.
func (r *RawBox[T]) Write(value T) *T {
	*r.ptr = value
	return r.ptr
}

// Free returns the storage to the allocator without dropping anything: no
// value is certified to exist.
func (r *RawBox[T]) Free() {
	if r.ptr == nil {
		return
	}
	r.alloc.Deallocate(r.block)
	*r = RawBox[T]{}
}

// AssumeInit turns r into an initialized Box without copying or allocating.
// r is empty afterwards.
//
// Precondition, not checked: every byte of the T in r has been validly
// written, for example through Write. Violating it is undefined behaviour.
func AssumeInit[T any](r *RawBox[T]) *Box[T] {
	b := &Box[T]{ptr: r.ptr, block: r.block, alloc: r.alloc}
	*r = RawBox[T]{}
	return b
}
