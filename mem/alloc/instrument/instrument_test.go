package instrument

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem/alloc"
)

// TestAllocator_Counts tests counters and the bytes-in-use gauge.
func TestAllocator_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(alloc.Heap{}, "test", reg)

	l, err := alloc.ArrayOf[uint64](8)
	require.NoError(t, err)

	b1, err := a.Allocate(l)
	require.NoError(t, err)
	b2, err := a.Allocate(l)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(a.allocations))
	assert.Equal(t, 128.0, testutil.ToFloat64(a.inUse))

	a.Deallocate(b1)
	a.Deallocate(b2)
	a.Deallocate(alloc.Block{})

	st := a.Stats()
	assert.Equal(t, uint64(2), st.Allocations)
	assert.Equal(t, uint64(2), st.Deallocations)
	assert.Zero(t, st.BytesInUse)
	assert.Zero(t, testutil.ToFloat64(a.inUse))

	n, err := testutil.GatherAndCount(reg, "memkit_allocator_allocations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestAllocator_FailureReasons tests the failure label values.
func TestAllocator_FailureReasons(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(alloc.NewLimit(alloc.Heap{}, 16), "limited", reg)

	l, err := alloc.ArrayOf[uint64](4)
	require.NoError(t, err)
	_, err = a.Allocate(l)
	require.ErrorIs(t, err, alloc.ErrBudget)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.failures.WithLabelValues("budget")))
	assert.Equal(t, uint64(1), a.Stats().Failures)
	assert.Zero(t, a.Stats().Allocations)
}

// TestAllocator_Grow tests in-place growth through a bump arena.
func TestAllocator_Grow(t *testing.T) {
	ba, err := alloc.NewBump(256)
	require.NoError(t, err)
	defer ba.Close()

	a := New(ba, "bump", nil)

	l8, err := alloc.ArrayOf[byte](8)
	require.NoError(t, err)
	l32, err := alloc.ArrayOf[byte](32)
	require.NoError(t, err)

	b, err := a.Allocate(l8)
	require.NoError(t, err)
	b, err = a.Grow(b, l32)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.Stats().Grows)
	assert.Equal(t, int64(32), a.Stats().BytesInUse)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.grows.WithLabelValues("in_place")))

	_, err = a.Allocate(l8)
	require.NoError(t, err)
	_, err = a.Grow(b, l32)
	assert.ErrorIs(t, err, alloc.ErrNotInPlace)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.grows.WithLabelValues("failed")))
}

// TestAllocator_GrowWithoutGrower tests that a plain inner allocator reports
// ErrNotInPlace without touching the metrics.
func TestAllocator_GrowWithoutGrower(t *testing.T) {
	a := New(nil, "heap", nil)
	assert.Equal(t, alloc.Heap{}, a.Inner())

	_, err := a.Grow(alloc.Block{}, alloc.LayoutOf[int]())
	assert.ErrorIs(t, err, alloc.ErrNotInPlace)
	assert.Zero(t, a.Stats().Grows)
}

// TestAllocator_GrowOverPlainLimit tests that a wrapper with nothing able to
// grow in place reports no grow attempts.
func TestAllocator_GrowOverPlainLimit(t *testing.T) {
	a := New(alloc.NewLimit(alloc.Heap{}, 1<<20), "limited-heap", nil)
	assert.False(t, alloc.CanGrow(a))

	l8, err := alloc.ArrayOf[byte](8)
	require.NoError(t, err)
	l16, err := alloc.ArrayOf[byte](16)
	require.NoError(t, err)

	b, err := a.Allocate(l8)
	require.NoError(t, err)
	_, err = a.Grow(b, l16)
	assert.ErrorIs(t, err, alloc.ErrNotInPlace)
	assert.Zero(t, testutil.ToFloat64(a.grows.WithLabelValues("failed")))
	assert.Zero(t, testutil.ToFloat64(a.grows.WithLabelValues("in_place")))
}

// TestAllocator_Logger tests debug logging of allocator calls.
func TestAllocator_Logger(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := New(alloc.Heap{}, "logged", nil, WithLogger(logger))

	b, err := a.Allocate(alloc.LayoutOf[uint64]())
	require.NoError(t, err)
	a.Deallocate(b)

	assert.Contains(t, out.String(), "msg=alloc")
	assert.Contains(t, out.String(), "msg=dealloc")
	assert.Contains(t, out.String(), "size=8")
}

// TestAllocator_DuplicateNamePanics tests registry collisions.
func TestAllocator_DuplicateNamePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(nil, "dup", reg)
	assert.Panics(t, func() { New(nil, "dup", reg) })
}
