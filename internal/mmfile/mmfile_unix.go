//go:build unix

package mmfile

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Supported reports whether anonymous mappings are available on this platform.
const Supported = true

// MapAnon maps size bytes of private, zero-filled anonymous memory.
// size is rounded up to a whole number of pages by the kernel.
func MapAnon(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmfile: mmap %d bytes: %w", size, err)
	}
	return data, nil
}

// Unmap releases a mapping returned by MapAnon.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// PageSize returns the system memory page size.
func PageSize() int {
	return unix.Getpagesize()
}
