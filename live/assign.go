package live

import (
	"fmt"
	"reflect"

	"github.com/signadot/graphstore/array"
)

var denseType = reflect.TypeFor[*array.Dense]()

// slot returns the Go value held in fv. Addressable structs, slices and
// arrays are returned by address.
func slot(fv reflect.Value) any {
	switch fv.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array:
		if fv.CanAddr() {
			return fv.Addr().Interface()
		}
	case reflect.Interface:
		if fv.IsNil() {
			return nil
		}
		return fv.Elem().Interface()
	case reflect.Pointer, reflect.Map:
		if fv.IsNil() {
			return nil
		}
	}
	return fv.Interface()
}

// construct returns a fresh value to load into a slot of type t.
func construct(t reflect.Type) (any, bool) {
	switch t.Kind() {
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer:
		if t == denseType {
			return nil, false
		}
		return reflect.New(t.Elem()).Interface(), true
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), true
	case reflect.Struct, reflect.Slice, reflect.Array:
		return reflect.New(t).Interface(), true
	}
	return reflect.Zero(t).Interface(), true
}

// assign stores v in dst. A pointer is dereferenced when its target
// type fits dst, and primitives convert between types of the same kind.
func assign(dst reflect.Value, v any) error {
	if !dst.CanSet() {
		return fmt.Errorf("cannot set %s", dst.Type())
	}
	v = Unwrap(v)
	if v == nil {
		switch dst.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
			dst.SetZero()
			return nil
		}
		return fmt.Errorf("cannot assign null to %s", dst.Type())
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(dst.Type()) {
		if dst.CanAddr() && dst.Addr().Pointer() == rv.Pointer() {
			return nil
		}
		dst.Set(rv.Elem())
		return nil
	}
	if rv.Kind() == dst.Kind() && isPrimitiveKind(rv.Kind()) && rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", rv.Type(), dst.Type())
}
