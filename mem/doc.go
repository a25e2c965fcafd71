// Package mem is the root of memkit, a set of owned-memory containers whose
// allocations are fallible.
//
// Every operation that may need memory reports failure as an error value. Out
// of memory is a recoverable event that the caller sees, never a panic inside
// the containers.
//
// # Packages
//
//   - alloc: the allocator capability (Layout, Block, Allocator) and concrete
//     allocators (Heap, Bump, Limit, Mmap)
//   - alloc/instrument: prometheus metrics and slog logging around any allocator
//   - boxed: single-value container Box, its uninitialized variant RawBox, and
//     the fixed-length Array/RawArray
//   - vec: growable sequence Vec
//   - policy: caller-chosen strategies for turning a failure into abort or
//     continue
//   - config: choosing the process-wide allocator at start-up
//
// # Failure Contracts
//
// The two containers recover from failure differently:
//
//   - boxed.New: the value passed in is lost when allocation fails
//   - vec.Vec.Push and Insert: the value is handed back inside the error
//
// # Destruction
//
// Go has no destructors, so containers are released explicitly with Free.
// Values implementing Dropper are dropped when a container destroys them.
//
// # Thread Safety
//
// Containers are not safe for concurrent use. Callers must synchronize access
// externally.
package mem
