package alloc

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrAllocFailed is matched by every allocation failure.
	ErrAllocFailed = errors.New("alloc: allocation failed")

	// ErrLayout indicates an invalid layout request (overflowing size, bad alignment).
	ErrLayout = errors.New("alloc: invalid layout")

	// ErrExhausted indicates the allocator ran out of memory.
	ErrExhausted = errors.New("alloc: out of memory")

	// ErrBudget indicates a Limit allocator would exceed its byte budget.
	ErrBudget = errors.New("alloc: budget exceeded")

	// ErrPointers indicates a layout whose element type holds Go pointers was
	// requested from an allocator that hands out unscanned memory.
	ErrPointers = errors.New("alloc: layout holds Go pointers")

	// ErrNotInPlace indicates a block could not be grown without moving it.
	ErrNotInPlace = errors.New("alloc: cannot grow in place")

	// ErrUnsupported indicates the allocator is not available on this platform.
	ErrUnsupported = errors.New("alloc: not supported on this platform")
)

// Error is the structured allocation failure returned by allocators. It
// carries the layout that could not be satisfied and the cause.
type Error struct {
	Layout Layout
	Err    error
}

// Fail wraps cause into an allocation failure for l. Allocators outside this
// package use it so their failures match ErrAllocFailed.
func Fail(l Layout, cause error) error {
	return &Error{Layout: l, Err: cause}
}

func (e *Error) Error() string {
	if e.Layout.Align == 0 {
		return fmt.Sprintf("alloc: invalid request: %v", e.Err)
	}
	if e.Layout.Size == 0 && e.Layout.count > 1 {
		return fmt.Sprintf("alloc: cannot allocate %d elements of %s: %v",
			e.Layout.count, e.Layout.typeName(), e.Err)
	}
	return fmt.Sprintf("alloc: cannot allocate %s (align %d): %v",
		humanize.IBytes(uint64(e.Layout.Size)), e.Layout.Align, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrAllocFailed.
func (e *Error) Is(target error) bool { return target == ErrAllocFailed }
