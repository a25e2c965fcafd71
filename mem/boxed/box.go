// Package boxed provides Box, an owned single value stored in its own
// allocation, and Array, a fixed-length run of values stored the same way.
//
// Construction is fallible. When New or NewIn cannot allocate, the value
// passed in is lost: it is dropped and only the error comes back. Callers that
// need the value back on failure should allocate with NewRawIn first, then
// write the value and call AssumeInit.
//
// RawBox and RawArray are the uninitialized variants. Their storage is
// allocated but carries no value until the caller writes one and certifies it
// with AssumeInit or AssumeInitArray.
package boxed

import (
	"unsafe"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/alloc"
)

// Box owns a single T stored in a block from its allocator.
type Box[T any] struct {
	ptr   *T
	block alloc.Block
	alloc alloc.Allocator
}

// New stores value in a block from the Heap allocator.
func New[T any](value T) (*Box[T], error) {
	return NewIn(value, nil)
}

// NewIn stores value in a block from a (Heap when nil). If allocation fails
// the value is dropped and lost.
func NewIn[T any](value T, a alloc.Allocator) (*Box[T], error) {
	a = alloc.OrDefault(a)
	blk, err := a.Allocate(alloc.LayoutOf[T]())
	if err != nil {
		mem.Drop(&value)
		return nil, err
	}
	p := (*T)(blk.Ptr())
	*p = value
	return &Box[T]{ptr: p, block: blk, alloc: a}, nil
}

// Get returns a pointer to the held value. It is valid until Free.
func (b *Box[T]) Get() *T { return b.ptr }

// Value returns a copy of the held value.
func (b *Box[T]) Value() T { return *b.ptr }

// Set replaces the held value, dropping the previous one.
func (b *Box[T]) Set(value T) {
	mem.Drop(b.ptr)
	*b.ptr = value
}

// Allocator returns the allocator the box releases its block to.
func (b *Box[T]) Allocator() alloc.Allocator { return b.alloc }

// UnsafePointer returns the address of the held value without transferring
// ownership. Deriving more than one live mutable view through it is
// undefined behaviour, as is using it after Free.
func (b *Box[T]) UnsafePointer() unsafe.Pointer { return unsafe.Pointer(b.ptr) }

// Free drops the held value and returns its block to the allocator. The box
// is empty afterwards; Free on an empty box does nothing.
func (b *Box[T]) Free() {
	if b.ptr == nil {
		return
	}
	mem.Drop(b.ptr)
	var zero T
	*b.ptr = zero
	b.alloc.Deallocate(b.block)
	*b = Box[T]{}
}

// Leak empties b and returns the held value's address. The value is never
// dropped and its block never released unless the caller rebuilds a box with
// FromRaw using the same allocator.
func Leak[T any](b *Box[T]) *T {
	p, _ := IntoRaw(b)
	return p
}

// IntoRaw empties b and hands ownership of the value and its block to the
// caller as a pointer plus the allocator that must eventually release it.
func IntoRaw[T any](b *Box[T]) (*T, alloc.Allocator) {
	p, a := b.ptr, b.alloc
	*b = Box[T]{}
	return p, a
}

// FromRaw rebuilds a box from a pointer returned by IntoRaw or Leak.
//
// Precondition, not checked: p came from a box of the same T whose block was
// allocated by a, and no other box owns it. Anything else is undefined
// behaviour.
func FromRaw[T any](p *T, a alloc.Allocator) *Box[T] {
	return &Box[T]{
		ptr:   p,
		block: alloc.MakeBlock(unsafe.Pointer(p), alloc.LayoutOf[T]()),
		alloc: a,
	}
}
