// Package mmfile provides platform-specific helpers for anonymous memory
// mappings. Mapped memory lives outside the Go heap and is never scanned by
// the garbage collector.
package mmfile
