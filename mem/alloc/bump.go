package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/mmfile"
)

// noLast marks that no block is eligible for rollback or in-place growth.
const noLast = ^uintptr(0)

// Bump is a fixed-capacity arena allocator using a bump pointer.
//
// Key characteristics:
//   - O(1) allocation: pure bump pointer, no free lists
//   - Deallocate reclaims only the most recent block; any other block becomes
//     dead space until Reset
//   - Grow extends the most recent block in place when the arena has room
//   - Never grows the arena itself: an exhausted arena fails with ErrExhausted
//
// Memory is reused after Reset or rollback without being cleared, so fresh
// blocks hold whatever was written there before. Layouts holding Go pointers
// are refused with ErrPointers.
//
// Bump is not safe for concurrent use.
type Bump struct {
	region  []byte
	release func([]byte) error

	// end is the bump pointer: the region offset of the next allocation.
	end uintptr

	// last is the offset of the most recent live block, or noLast.
	last uintptr

	peak uintptr
	live int
}

// NewBump creates an arena of capacity bytes backed by the Go heap.
func NewBump(capacity int) (*Bump, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("alloc: invalid arena capacity %d", capacity)
	}
	return &Bump{region: make([]byte, capacity), last: noLast}, nil
}

// NewMmapBump creates an arena of capacity bytes backed by an anonymous
// memory mapping. Close releases the mapping.
func NewMmapBump(capacity int) (*Bump, error) {
	if !mmfile.Supported {
		return nil, ErrUnsupported
	}
	region, err := mmfile.MapAnon(capacity)
	if err != nil {
		return nil, err
	}
	return &Bump{region: region, release: mmfile.Unmap, last: noLast}, nil
}

// Allocate implements Allocator.
func (ba *Bump) Allocate(l Layout) (Block, error) {
	if err := l.validate(); err != nil {
		return Block{}, Fail(l, err)
	}
	if l.HasPointers() {
		return Block{}, Fail(l, ErrPointers)
	}
	if ba.region == nil {
		return Block{}, Fail(l, fmt.Errorf("%w: arena closed", ErrExhausted))
	}
	if l.Size == 0 {
		return zeroBlock(l), nil
	}

	start, ok := ba.alignedOffset(l.Align)
	if !ok {
		return Block{}, Fail(l, ErrExhausted)
	}
	newEnd, ok := buf.AddOverflowSafe(start, l.Size)
	if !ok || newEnd > uintptr(len(ba.region)) {
		return Block{}, Fail(l, fmt.Errorf("%w: arena has %d of %d bytes free",
			ErrExhausted, uintptr(len(ba.region))-ba.end, len(ba.region)))
	}

	ba.last = start
	ba.end = newEnd
	ba.live++
	if ba.end > ba.peak {
		ba.peak = ba.end
	}

	return Block{ptr: unsafe.Pointer(&ba.region[start]), layout: l}, nil
}

// Deallocate implements Allocator. Only the most recent block is reclaimed;
// every other block stays dead space until Reset.
func (ba *Bump) Deallocate(b Block) {
	if b.IsZero() || b.isZeroSized() {
		return
	}
	off, ok := ba.offsetOf(b)
	if !ok {
		return
	}
	if ba.live > 0 {
		ba.live--
	}
	if off == ba.last && off+b.layout.Size == ba.end {
		ba.end = off
		ba.last = noLast
	}
}

// Grow implements Grower. Only the most recent block can grow, and only when
// the arena has room after it.
func (ba *Bump) Grow(b Block, l Layout) (Block, error) {
	if err := l.validate(); err != nil {
		return Block{}, Fail(l, err)
	}
	if l.HasPointers() {
		return Block{}, Fail(l, ErrPointers)
	}
	off, ok := ba.offsetOf(b)
	if !ok || b.isZeroSized() || off != ba.last || off+b.layout.Size != ba.end {
		return Block{}, Fail(l, ErrNotInPlace)
	}
	if uintptr(b.ptr)&(l.Align-1) != 0 {
		return Block{}, Fail(l, ErrNotInPlace)
	}
	if l.Size < b.layout.Size {
		return Block{}, Fail(l, fmt.Errorf("%w: cannot shrink from %d to %d bytes", ErrLayout, b.layout.Size, l.Size))
	}
	newEnd, ok := buf.AddOverflowSafe(off, l.Size)
	if !ok || newEnd > uintptr(len(ba.region)) {
		return Block{}, Fail(l, ErrNotInPlace)
	}

	ba.end = newEnd
	if ba.end > ba.peak {
		ba.peak = ba.end
	}
	return Block{ptr: b.ptr, layout: l}, nil
}

// Reset discards every allocation. Blocks handed out before Reset must not be
// used afterwards.
func (ba *Bump) Reset() {
	ba.end = 0
	ba.last = noLast
	ba.live = 0
}

// Close releases the arena's backing memory. The arena fails every
// allocation afterwards.
func (ba *Bump) Close() error {
	region := ba.region
	ba.region = nil
	ba.Reset()
	if ba.release != nil && region != nil {
		return ba.release(region)
	}
	return nil
}

// Len returns the number of bytes between the arena start and the bump pointer.
func (ba *Bump) Len() int { return int(ba.end) }

// Cap returns the arena capacity in bytes.
func (ba *Bump) Cap() int { return len(ba.region) }

// Peak returns the high-water mark of the bump pointer. It survives Reset.
func (ba *Bump) Peak() int { return int(ba.peak) }

// Live returns the number of blocks allocated and not yet deallocated.
func (ba *Bump) Live() int { return ba.live }

// alignedOffset returns the first offset at or after end whose address is
// aligned to align.
func (ba *Bump) alignedOffset(align uintptr) (uintptr, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(ba.region)))
	addr, ok := buf.AddOverflowSafe(base, ba.end)
	if !ok {
		return 0, false
	}
	aligned, ok := buf.AlignUp(addr, align)
	if !ok {
		return 0, false
	}
	return aligned - base, true
}

// offsetOf returns b's offset in the region, or false if b is not inside it.
func (ba *Bump) offsetOf(b Block) (uintptr, bool) {
	if len(ba.region) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(ba.region)))
	p := uintptr(b.ptr)
	if p < base || p >= base+uintptr(len(ba.region)) {
		return 0, false
	}
	return p - base, true
}

// Compile-time interface checks
var (
	_ Allocator = (*Bump)(nil)
	_ Grower    = (*Bump)(nil)
)
