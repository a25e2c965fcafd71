// Package testutil provides allocators for exercising failure paths in tests.
package testutil

import (
	"errors"

	"github.com/joshuapare/memkit/mem/alloc"
)

// ErrInjected is the cause of every failure produced by FaultyAllocator.
var ErrInjected = errors.New("testutil: injected allocation failure")

// Counts records the calls a FaultyAllocator has seen.
type Counts struct {
	Allocations   int // successful Allocate calls
	Deallocations int
	Grows         int // successful in-place grows
	Failures      int // failed Allocate or Grow calls
}

// FaultyAllocator wraps an allocator and fails chosen calls.
//
// Allocate and Grow calls are numbered from 1 in one sequence. The calls in
// the failing window fail, as does every call while SetFailing(true) is in
// effect. Grow is forwarded only when the inner allocator can grow in place;
// otherwise it reports ErrNotInPlace without taking a number.
//
// Example:
//
//	fa := testutil.NewFaulty(alloc.Heap{}, 0)
//	fa.FailNextCall()
//	err := v.Push(4) // fails, v unchanged
type FaultyAllocator struct {
	inner   alloc.Allocator
	failing bool
	calls   int
	counts  Counts

	// failFrom and failTo bound the failing window, inclusive. failFrom 0
	// means no window.
	failFrom int
	failTo   int
}

// NewFaulty wraps inner (Heap when nil) and fails its failOn-th call.
// failOn 0 never fails.
func NewFaulty(inner alloc.Allocator, failOn int) *FaultyAllocator {
	return &FaultyAllocator{inner: alloc.OrDefault(inner), failFrom: failOn, failTo: failOn}
}

// FailNextCall makes the next call fail.
func (f *FaultyAllocator) FailNextCall() { f.FailNext(1) }

// FailNext makes the next n calls fail.
func (f *FaultyAllocator) FailNext(n int) {
	f.failFrom, f.failTo = f.calls+1, f.calls+n
}

// SetFailing makes every call fail until switched off.
func (f *FaultyAllocator) SetFailing(failing bool) { f.failing = failing }

// Calls returns the number of Allocate and Grow calls seen so far.
func (f *FaultyAllocator) Calls() int { return f.calls }

// Counts returns a snapshot of the call counters.
func (f *FaultyAllocator) Counts() Counts { return f.counts }

// CanGrow reports whether the inner allocator can grow in place.
func (f *FaultyAllocator) CanGrow() bool { return alloc.CanGrow(f.inner) }

// next numbers a call and reports whether it must fail.
func (f *FaultyAllocator) next() bool {
	f.calls++
	if f.failing || (f.failFrom > 0 && f.calls >= f.failFrom && f.calls <= f.failTo) {
		f.counts.Failures++
		return true
	}
	return false
}

// Allocate implements alloc.Allocator.
func (f *FaultyAllocator) Allocate(l alloc.Layout) (alloc.Block, error) {
	if f.next() {
		return alloc.Block{}, alloc.Fail(l, ErrInjected)
	}
	b, err := f.inner.Allocate(l)
	if err != nil {
		f.counts.Failures++
		return alloc.Block{}, err
	}
	f.counts.Allocations++
	return b, nil
}

// Deallocate implements alloc.Allocator.
func (f *FaultyAllocator) Deallocate(b alloc.Block) {
	f.counts.Deallocations++
	f.inner.Deallocate(b)
}

// Grow implements alloc.Grower.
func (f *FaultyAllocator) Grow(b alloc.Block, l alloc.Layout) (alloc.Block, error) {
	g, ok := f.inner.(alloc.Grower)
	if !ok || !alloc.CanGrow(f.inner) {
		return alloc.Block{}, alloc.Fail(l, alloc.ErrNotInPlace)
	}
	if f.next() {
		return alloc.Block{}, alloc.Fail(l, ErrInjected)
	}
	nb, err := g.Grow(b, l)
	if err != nil {
		return alloc.Block{}, err
	}
	f.counts.Grows++
	return nb, nil
}

// Compile-time interface checks
var (
	_ alloc.Allocator = (*FaultyAllocator)(nil)
	_ alloc.Grower    = (*FaultyAllocator)(nil)
)
