package boxed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem/alloc"
)

// TestNewArray_Fill tests filling with copies of one value.
func TestNewArray_Fill(t *testing.T) {
	a, err := NewArray(5, uint16(7))
	require.NoError(t, err)
	defer a.Free()

	assert.Equal(t, 5, a.Len())
	assert.Equal(t, []uint16{7, 7, 7, 7, 7}, a.Slice())

	*a.Get(2) = 9
	var got []uint16
	for i, v := range a.All() {
		assert.Equal(t, a.Slice()[i], v)
		got = append(got, v)
	}
	assert.Equal(t, []uint16{7, 7, 9, 7, 7}, got)
}

// TestNewArray_Empty tests zero-length arrays.
func TestNewArray_Empty(t *testing.T) {
	a, err := NewArray(0, 1)
	require.NoError(t, err)
	assert.Zero(t, a.Len())
	a.Free()
}

// TestNewArrayIn_Overflow tests that an overflowing length is an allocation
// failure and the value is dropped.
func TestNewArrayIn_Overflow(t *testing.T) {
	var drops []int
	fa := testutil.NewFaulty(nil, 0)

	a, err := NewArrayIn(math.MaxInt/2, tracked{id: 1, drops: &drops}, fa)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, alloc.ErrAllocFailed)
	assert.ErrorIs(t, err, alloc.ErrLayout)
	assert.Equal(t, []int{1}, drops)
	assert.Zero(t, fa.Calls(), "allocator must not be consulted")
}

// TestArray_FreeDropsInOrder tests element destruction order.
func TestArray_FreeDropsInOrder(t *testing.T) {
	var drops []int
	r, err := NewRawArray[tracked](3)
	require.NoError(t, err)
	for i := range r.Len() {
		r.Write(i, tracked{id: i, drops: &drops})
	}
	a := AssumeInitArray(r)
	assert.Zero(t, r.Len())

	a.Free()
	assert.Equal(t, []int{0, 1, 2}, drops)
	assert.Zero(t, a.Len())
	a.Free()
	assert.Len(t, drops, 3)
}

// TestRawArray_AssumeInit tests that every written slot survives certification.
func TestRawArray_AssumeInit(t *testing.T) {
	ba, err := alloc.NewBump(1024)
	require.NoError(t, err)
	defer ba.Close()

	r, err := NewRawArrayIn[uint64](16, ba)
	require.NoError(t, err)
	for i := range r.Len() {
		*r.Ptr(i) = uint64(i * i)
	}
	a := AssumeInitArray(r)
	for i, v := range a.All() {
		assert.Equal(t, uint64(i*i), v)
	}
	assert.Equal(t, 128, ba.Len())

	a.Free()
	assert.Zero(t, ba.Live())
}

// TestRawArray_FreeDoesNotDrop tests releasing uncertified storage.
func TestRawArray_FreeDoesNotDrop(t *testing.T) {
	var drops []int
	r, err := NewRawArray[tracked](2)
	require.NoError(t, err)
	r.Write(0, tracked{id: 0, drops: &drops})
	r.Free()
	assert.Empty(t, drops)
}

// TestLeakArray tests that leaked elements are not dropped.
func TestLeakArray(t *testing.T) {
	var drops []int
	a, err := NewArray(2, tracked{id: 4, drops: &drops})
	require.NoError(t, err)

	elems := LeakArray(a)
	assert.Len(t, elems, 2)
	a.Free()
	assert.Empty(t, drops)
}
