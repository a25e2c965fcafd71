package alloc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
)

// Layout describes the shape of a memory request.
//
// Layouts built by LayoutOf and ArrayOf also remember the element type and
// count, which lets Heap hand out garbage-collected memory for element types
// holding Go pointers. Layouts built by NewLayout are untyped raw bytes.
type Layout struct {
	Size  uintptr
	Align uintptr

	elem  reflect.Type
	count int
}

// LayoutOf returns the layout of a single T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{
		Size:  unsafe.Sizeof(zero),
		Align: unsafe.Alignof(zero),
		elem:  reflect.TypeFor[T](),
		count: 1,
	}
}

// ArrayOf returns the layout of n contiguous T. The size computation is
// overflow checked; a request that does not fit is an allocation failure
// wrapping ErrLayout.
func ArrayOf[T any](n int) (Layout, error) {
	var zero T
	l := Layout{
		Align: unsafe.Alignof(zero),
		elem:  reflect.TypeFor[T](),
		count: n,
	}
	size, err := buf.CheckArraySize(n, unsafe.Sizeof(zero), l.Align)
	if err != nil {
		return Layout{}, Fail(l, fmt.Errorf("%w: %v", ErrLayout, err))
	}
	l.Size = size
	return l, nil
}

// NewLayout returns an untyped layout of size bytes aligned to align.
func NewLayout(size, align uintptr) (Layout, error) {
	l := Layout{Size: size, Align: align}
	if err := l.validate(); err != nil {
		return Layout{}, Fail(l, err)
	}
	return l, nil
}

// Count returns the number of elements described by a typed layout, or 0 for
// untyped layouts.
func (l Layout) Count() int {
	if l.elem == nil {
		return 0
	}
	return l.count
}

// Elem returns the element type of a typed layout, or nil.
func (l Layout) Elem() reflect.Type { return l.elem }

// HasPointers reports whether the element type holds Go pointers. Memory for
// such layouts must be scanned by the garbage collector.
func (l Layout) HasPointers() bool {
	if l.elem == nil {
		return false
	}
	return typeHasPointers(l.elem)
}

// validate checks alignment and the padded size.
func (l Layout) validate() error {
	if !buf.IsPowerOfTwo(l.Align) {
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrLayout, l.Align)
	}
	padded, ok := buf.AlignUp(l.Size, l.Align)
	if !ok || padded > buf.MaxSize {
		return fmt.Errorf("%w: size %d exceeds %d", ErrLayout, l.Size, buf.MaxSize)
	}
	return nil
}

func (l Layout) typeName() string {
	if l.elem == nil {
		return "bytes"
	}
	return l.elem.String()
}

var pointerCache sync.Map // reflect.Type -> bool

func typeHasPointers(t reflect.Type) bool {
	if v, ok := pointerCache.Load(t); ok {
		return v.(bool)
	}
	has := scanType(t)
	pointerCache.Store(t, has)
	return has
}

func scanType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && scanType(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if scanType(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
