// Package buf contains overflow-checked size and alignment arithmetic used
// when turning element counts into memory layouts.
package buf

import (
	"fmt"
	"math"
)

// MaxSize is the largest byte size any layout may describe. It matches the
// largest length a Go slice of bytes can have.
const MaxSize = uintptr(math.MaxInt)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uintptr.
func AddOverflowSafe(a, b uintptr) (uintptr, bool) {
	if a > math.MaxUint-b {
		return 0, false
	}
	return a + b, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow uintptr.
// This is essential for count * elementSize calculations.
func MulOverflowSafe(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint/b {
		return 0, false
	}
	return a * b, true
}

// CheckArraySize validates that count elements of elemSize bytes, padded to
// align, describe a size no larger than MaxSize. Returns the total size if
// valid, or an error describing the specific failure (negative count,
// overflow, or too large).
//
//	size, err := buf.CheckArraySize(n, unsafe.Sizeof(x), unsafe.Alignof(x))
//	if err != nil {
//	    return fmt.Errorf("layout: %w", err)
//	}
func CheckArraySize(count int, elemSize, align uintptr) (uintptr, error) {
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if !IsPowerOfTwo(align) {
		return 0, fmt.Errorf("alignment %d is not a power of two", align)
	}

	totalSize, ok := MulOverflowSafe(uintptr(count), elemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}

	// The padded size must also be representable.
	padded, ok := AlignUp(totalSize, align)
	if !ok || padded > MaxSize {
		return 0, fmt.Errorf("too large: count=%d * elemSize=%d exceeds %d", count, elemSize, MaxSize)
	}

	return totalSize, nil
}
