package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestError_Messages tests the rendering of allocation failures.
func TestError_Messages(t *testing.T) {
	l, err := ArrayOf[uint64](512)
	assert.NoError(t, err)

	e := Fail(l, ErrExhausted)
	assert.Equal(t, "alloc: cannot allocate 4.0 KiB (align 8): alloc: out of memory", e.Error())

	e = Fail(Layout{}, ErrLayout)
	assert.Equal(t, "alloc: invalid request: alloc: invalid layout", e.Error())
}

// TestError_Matching tests errors.Is against the sentinels.
func TestError_Matching(t *testing.T) {
	cause := errors.New("boom")
	e := Fail(LayoutOf[int](), cause)

	assert.ErrorIs(t, e, ErrAllocFailed)
	assert.ErrorIs(t, e, cause)
	assert.NotErrorIs(t, e, ErrBudget)

	var aerr *Error
	assert.ErrorAs(t, e, &aerr)
	assert.Equal(t, LayoutOf[int]().Size, aerr.Layout.Size)
}
