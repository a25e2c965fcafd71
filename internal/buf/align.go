package buf

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignUp rounds n up to the next multiple of align. align must be a power of
// two. Returns ok = false when the rounded value would overflow.
func AlignUp(n, align uintptr) (uintptr, bool) {
	mask := align - 1
	sum, ok := AddOverflowSafe(n, mask)
	if !ok {
		return 0, false
	}
	return sum &^ mask, true
}
