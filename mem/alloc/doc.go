// Package alloc defines the allocator capability consumed by the memkit
// containers and ships a handful of concrete allocators.
//
// # Overview
//
// Every container in memkit obtains its storage through an Allocator and
// returns it to the same Allocator. Allocation is fallible: a request that
// cannot be satisfied is reported as an error, never as a panic or a process
// exit. What a failure means for the program is decided by the caller (see
// package policy).
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface:
//
//   - Allocate(layout): obtain a Block for a size/alignment request
//   - Deallocate(block): return a Block; never fails
//
// Allocators that can extend a block without moving it also implement Grower:
//
//   - Grow(block, layout): extend in place, or fail leaving block untouched
//
// # Layouts
//
// A Layout is a (size, alignment) pair. Typed layouts are built with
// LayoutOf and ArrayOf, which also record the element type. ArrayOf checks
// element size × count for overflow; an overflowing request is reported as an
// allocation failure wrapping ErrLayout.
//
// # Implementations
//
// Heap: the Go heap. Stateless and safe for concurrent use. Used by containers
// constructed without an explicit allocator.
//
// Bump: fixed-capacity arena with a bump pointer. Deallocate only reclaims the
// most recent block; Grow extends the most recent block in place.
//
// Limit: wraps another allocator with a byte budget.
//
// Mmap: one anonymous memory mapping per block (unix only).
//
// # Go Pointers
//
// Memory handed out by Bump and Mmap lives outside the Go heap and is not
// scanned by the garbage collector. Storing Go pointers there would let the
// collector free objects that are still referenced, so those allocators refuse
// layouts whose element type holds pointers (ErrPointers). Heap serves such
// layouts from typed, scanned memory.
//
// # Usage Example
//
//	arena, err := alloc.NewBump(64 << 10)
//	if err != nil {
//	    return err
//	}
//	defer arena.Close()
//
//	layout, err := alloc.ArrayOf[uint64](128)
//	if err != nil {
//	    return err
//	}
//	blk, err := arena.Allocate(layout)
//	if errors.Is(err, alloc.ErrAllocFailed) {
//	    // recover: free something, retry with a smaller request...
//	}
//	defer arena.Deallocate(blk)
//
// # Thread Safety
//
// Heap and Mmap are safe for concurrent use. Bump and Limit are not; callers
// must synchronize access externally.
package alloc
