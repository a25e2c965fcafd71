//go:build !unix

package mmfile

import "errors"

// Supported reports whether anonymous mappings are available on this platform.
const Supported = false

// ErrUnsupported is returned by MapAnon when mmap is not available.
var ErrUnsupported = errors.New("mmfile: anonymous mappings not supported on this platform")

// MapAnon always fails when mmap is not available.
func MapAnon(size int) ([]byte, error) {
	return nil, ErrUnsupported
}

// Unmap is a no-op when mmap is not available.
func Unmap(data []byte) error {
	return nil
}

// PageSize returns a conventional page size.
func PageSize() int {
	return 4096
}
