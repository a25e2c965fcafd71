package alloc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainPair struct {
	A uint32
	B uint64
}

type withPointer struct {
	N    int
	Name string
}

type nestedPointer struct {
	Inner [2]struct {
		P *int
	}
}

// TestLayoutOf_SizeAndAlign tests single-value layouts.
func TestLayoutOf_SizeAndAlign(t *testing.T) {
	l := LayoutOf[plainPair]()
	assert.Equal(t, uintptr(16), l.Size)
	assert.Equal(t, uintptr(8), l.Align)
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, "alloc.plainPair", l.Elem().String())

	empty := LayoutOf[struct{}]()
	assert.Zero(t, empty.Size)
}

// TestArrayOf_Overflow tests that size × count overflow is an allocation failure.
func TestArrayOf_Overflow(t *testing.T) {
	l, err := ArrayOf[uint64](4)
	require.NoError(t, err)
	assert.Equal(t, uintptr(32), l.Size)
	assert.Equal(t, 4, l.Count())

	_, err = ArrayOf[uint64](math.MaxInt / 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocFailed)
	assert.ErrorIs(t, err, ErrLayout)

	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Contains(t, aerr.Error(), "elements of uint64")

	_, err = ArrayOf[byte](-1)
	assert.ErrorIs(t, err, ErrLayout)
}

// TestNewLayout_Validation tests raw layouts.
func TestNewLayout_Validation(t *testing.T) {
	l, err := NewLayout(100, 16)
	require.NoError(t, err)
	assert.Equal(t, uintptr(100), l.Size)
	assert.Zero(t, l.Count())
	assert.False(t, l.HasPointers())

	_, err = NewLayout(8, 3)
	assert.ErrorIs(t, err, ErrLayout)
	assert.ErrorIs(t, err, ErrAllocFailed)

	_, err = NewLayout(math.MaxUint-2, 8)
	assert.ErrorIs(t, err, ErrLayout)
}

// TestLayout_HasPointers tests pointer detection through composite types.
func TestLayout_HasPointers(t *testing.T) {
	cases := []struct {
		name string
		l    Layout
		want bool
	}{
		{"int", LayoutOf[int](), false},
		{"plain struct", LayoutOf[plainPair](), false},
		{"byte array", LayoutOf[[64]byte](), false},
		{"string field", LayoutOf[withPointer](), true},
		{"nested pointer", LayoutOf[nestedPointer](), true},
		{"slice", LayoutOf[[]int](), true},
		{"interface", LayoutOf[any](), true},
		{"zero-length pointer array", LayoutOf[[0]*int](), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.l.HasPointers())
		})
	}
}
