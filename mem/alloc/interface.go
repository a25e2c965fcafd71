package alloc

// Allocator supplies raw memory blocks and reclaims them.
//
// Implementations:
//   - Heap: Go heap, the default for containers
//   - Bump: fixed-capacity arena
//   - Limit: byte budget wrapper
//   - Mmap: anonymous mappings
//
// An allocator must outlive every block it handed out. Passing Deallocate a
// block that did not come from the same allocator is undefined behaviour.
type Allocator interface {
	// Allocate returns a block satisfying l. Every failure satisfies
	// errors.Is(err, ErrAllocFailed).
	Allocate(l Layout) (Block, error)

	// Deallocate returns b to the allocator. It must not fail.
	Deallocate(b Block)
}

// Grower is implemented by allocators that can extend a block in place.
type Grower interface {
	// Grow extends b to the larger layout l without moving it. The returned
	// block has the same address as b. On error b is untouched and still
	// owned by the caller, who may fall back to allocate, copy and deallocate.
	Grow(b Block, l Layout) (Block, error)
}

// CanGrow reports whether a can ever grow a block in place. Wrappers that
// implement Grower by forwarding report it through a CanGrow method, so a
// wrapper around a plain allocator is not mistaken for a Grower.
func CanGrow(a Allocator) bool {
	if c, ok := a.(interface{ CanGrow() bool }); ok {
		return c.CanGrow()
	}
	_, ok := a.(Grower)
	return ok
}

// OrDefault returns a, or Heap when a is nil.
func OrDefault(a Allocator) Allocator {
	if a == nil {
		return Heap{}
	}
	return a
}
