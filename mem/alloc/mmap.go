package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/mmfile"
)

// Mmap serves every block from its own anonymous memory mapping. Blocks are
// page aligned and zero filled; Deallocate unmaps them. Layouts holding Go
// pointers are refused with ErrPointers, as are alignments above the page
// size.
//
// Mmap holds no mutable state and is safe for concurrent use.
type Mmap struct {
	pageSize uintptr
}

// NewMmap returns an mmap-backed allocator, or ErrUnsupported on platforms
// without anonymous mappings.
func NewMmap() (*Mmap, error) {
	if !mmfile.Supported {
		return nil, ErrUnsupported
	}
	return &Mmap{pageSize: uintptr(mmfile.PageSize())}, nil
}

// Allocate implements Allocator.
func (ma *Mmap) Allocate(l Layout) (Block, error) {
	if err := l.validate(); err != nil {
		return Block{}, Fail(l, err)
	}
	if l.HasPointers() {
		return Block{}, Fail(l, ErrPointers)
	}
	if l.Align > ma.pageSize {
		return Block{}, Fail(l, fmt.Errorf("%w: alignment %d exceeds page size %d", ErrLayout, l.Align, ma.pageSize))
	}
	if l.Size == 0 {
		return zeroBlock(l), nil
	}

	data, err := mmfile.MapAnon(int(l.Size))
	if err != nil {
		return Block{}, Fail(l, fmt.Errorf("%w: %w", ErrExhausted, err))
	}
	return Block{ptr: unsafe.Pointer(unsafe.SliceData(data)), layout: l}, nil
}

// Deallocate implements Allocator.
func (ma *Mmap) Deallocate(b Block) {
	if b.IsZero() || b.isZeroSized() {
		return
	}
	// Deallocate cannot report errors.
	_ = mmfile.Unmap(b.Bytes())
}

// Compile-time interface check
var _ Allocator = (*Mmap)(nil)
