package vec

import (
	"errors"
)

// ErrIndexOutOfRange indicates an insertion position beyond the current length.
var ErrIndexOutOfRange = errors.New("vec: index out of range")

// ValueError is returned by Push and Insert when the value could not be
// stored. It hands the rejected value back to the caller, who owns it again.
type ValueError[T any] struct {
	Value T
	Err   error
}

func (e *ValueError[T]) Error() string {
	return "vec: value rejected: " + e.Err.Error()
}

func (e *ValueError[T]) Unwrap() error { return e.Err }

// Rejected extracts the value carried by a *ValueError[T] in err's chain.
//
//	if err := v.Push(x); err != nil {
//	    x, _ = vec.Rejected[Item](err)
//	    // x is ours again
//	}
func Rejected[T any](err error) (T, bool) {
	var ve *ValueError[T]
	if errors.As(err, &ve) {
		return ve.Value, true
	}
	var zero T
	return zero, false
}
