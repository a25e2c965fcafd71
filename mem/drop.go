package mem

import "reflect"

// Dropper is implemented by values that must release resources when the
// container holding them destroys them. Containers call Drop exactly once per
// value they destroy, in index order for sequences. Values moved out of a
// container (Pop, Remove, Leak) are not dropped.
type Dropper interface {
	Drop()
}

var dropperType = reflect.TypeFor[Dropper]()

// NeedsDrop reports whether values of type T may need Drop called on them.
func NeedsDrop[T any]() bool {
	t := reflect.TypeFor[T]()
	return t.Kind() == reflect.Interface ||
		t.Implements(dropperType) ||
		reflect.PointerTo(t).Implements(dropperType)
}

// Drop runs the destructor of the value at v, if it has one.
func Drop[T any](v *T) {
	if d, ok := any(v).(Dropper); ok {
		d.Drop()
		return
	}
	if !NeedsDrop[T]() {
		return
	}
	// Pointer and interface values carry their own method set.
	d, ok := any(*v).(Dropper)
	if !ok {
		return
	}
	if rv := reflect.ValueOf(d); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return
	}
	d.Drop()
}
