package alloc

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
)

// Heap allocates from the Go heap. It is stateless, safe for concurrent use,
// and the allocator behind every container constructed without an explicit
// one.
//
// Pointer-free layouts are served from byte buffers aligned to the layout.
// Typed layouts whose element type holds Go pointers are served from a typed
// slice so the garbage collector scans them. Deallocate is a no-op: blocks are
// reclaimed by the garbage collector once unreachable.
//
// Requests the runtime refuses (for example sizes beyond the runtime's
// maximum allocation) are reported as ErrExhausted. A request the runtime
// accepts but the operating system cannot back is fatal to the process, as
// for any Go allocation; wrap Heap in a Limit to bound memory use.
type Heap struct{}

// Allocate implements Allocator.
func (Heap) Allocate(l Layout) (blk Block, err error) {
	if err := l.validate(); err != nil {
		return Block{}, Fail(l, err)
	}
	if l.Size == 0 {
		return zeroBlock(l), nil
	}

	defer func() {
		// makeslice reports oversize requests by panicking.
		if r := recover(); r != nil {
			blk = Block{}
			err = Fail(l, fmt.Errorf("%w: %v", ErrExhausted, r))
		}
	}()

	if l.HasPointers() {
		s := reflect.MakeSlice(reflect.SliceOf(l.elem), l.count, l.count)
		return Block{ptr: s.UnsafePointer(), layout: l}, nil
	}

	ptr, ok := alignedBytes(l.Size, l.Align)
	if !ok {
		return Block{}, Fail(l, fmt.Errorf("%w: size %d with alignment %d", ErrLayout, l.Size, l.Align))
	}
	return Block{ptr: ptr, layout: l}, nil
}

// Deallocate implements Allocator. The garbage collector reclaims the block.
func (Heap) Deallocate(Block) {}

// alignedBytes returns size bytes of zeroed heap memory aligned to align.
func alignedBytes(size, align uintptr) (unsafe.Pointer, bool) {
	b := make([]byte, size)
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)&(align-1) == 0 {
		return p, true
	}

	padded, ok := buf.AddOverflowSafe(size, align-1)
	if !ok || padded > buf.MaxSize {
		return nil, false
	}
	b = make([]byte, padded)
	p = unsafe.Pointer(unsafe.SliceData(b))
	off := (align - uintptr(p)&(align-1)) & (align - 1)
	return unsafe.Add(p, off), true
}

// Compile-time interface check
var _ Allocator = Heap{}
