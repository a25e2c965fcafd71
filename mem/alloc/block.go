package alloc

import "unsafe"

// zeroBase is the address handed out for zero-sized requests.
var zeroBase uint64

// Block is a contiguous region obtained from an Allocator.
type Block struct {
	ptr    unsafe.Pointer
	layout Layout
}

// MakeBlock assembles a block from its address and layout. Allocator
// implementations use it to return blocks; containers use it to rebuild a
// block from a pointer previously released with an ownership-transfer call.
func MakeBlock(ptr unsafe.Pointer, l Layout) Block {
	return Block{ptr: ptr, layout: l}
}

// zeroBlock returns the block used for zero-sized layouts.
func zeroBlock(l Layout) Block {
	return Block{ptr: unsafe.Pointer(&zeroBase), layout: l}
}

// Ptr returns the block's start address.
func (b Block) Ptr() unsafe.Pointer { return b.ptr }

// Layout returns the layout the block was allocated for.
func (b Block) Layout() Layout { return b.layout }

// Size returns the block size in bytes.
func (b Block) Size() uintptr { return b.layout.Size }

// IsZero reports whether b is the zero Block (no memory).
func (b Block) IsZero() bool { return b.ptr == nil }

// Bytes returns the block as a byte slice. Writing through it into a block
// whose layout HasPointers corrupts the garbage collector's view of memory.
func (b Block) Bytes() []byte {
	if b.ptr == nil || b.layout.Size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr), b.layout.Size)
}

// isZeroSized reports whether b covers no memory.
func (b Block) isZeroSized() bool {
	return b.ptr == unsafe.Pointer(&zeroBase) || b.layout.Size == 0
}
