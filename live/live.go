// Package live defines the capabilities through which stored snapshots
// are merged into running object graphs, and adapters giving ordinary
// Go values those capabilities.
//
// A node of a live graph is one of:
//
//   - a HasFields (records: structs, string keyed maps),
//   - a HasIndex (ordered sequences: slices, arrays),
//   - an *array.Dense,
//   - a primitive (nil, bool, numbers, strings).
//
// Wrap returns the adapter for a Go value and Unwrap reverses it.
package live

import (
	"reflect"

	"github.com/signadot/graphstore/array"
)

// MapType is the type name of generic string keyed mappings.
const MapType = "map"

// HasFields is a node with named attributes.
type HasFields interface {
	// FieldNames returns the names of the fields in storage order.
	FieldNames() []string
	Field(name string) (any, bool)
	SetField(name string, v any) error
}

// HasIndex is an ordered sequence.
type HasIndex interface {
	Len() int
	Index(i int) any
	SetIndex(i int, v any) error
	Append(v any) error
}

// Extensible is implemented by mappings which accept fields they do
// not have yet.
type Extensible interface {
	AddField(name string, v any) error
}

// Constructor is implemented by containers whose slots have a static
// type. Construct returns a fresh zero value for the slot, which is a
// field name or "" for sequence elements.
type Constructor interface {
	Construct(slot string) (any, bool)
}

// Unwrapper is implemented by adapters.
type Unwrapper interface {
	Unwrap() any
}

// Stateful values are stored as a single state value instead of field
// by field. GraphState must return a value made of maps, slices, arrays
// and primitives; SetGraphState receives one of the same shape.
type Stateful interface {
	GraphState() any
	SetGraphState(state any) error
}

// Typed values report their own type name.
type Typed interface {
	GraphType() string
}

// Unwrap returns the Go value behind an adapter, or v itself.
func Unwrap(v any) any {
	if u, ok := v.(Unwrapper); ok {
		return u.Unwrap()
	}
	return v
}

// Wrap returns v with its capabilities exposed:
//
//   - *struct becomes *Struct, modified in place,
//   - *[]T and *[N]T become *Slice, modified in place,
//   - map[string]any becomes Map,
//   - other maps with string keys become *Dict,
//   - struct, slice and array values become adapters over a copy.
//
// Values already implementing a capability, arrays and primitives are
// returned unchanged.
func Wrap(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case HasFields, HasIndex, Stateful, *array.Dense:
		return v
	case map[string]any:
		return Map(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}
		e := rv.Elem()
		switch e.Kind() {
		case reflect.Struct:
			return newStruct(e, v)
		case reflect.Slice, reflect.Array:
			return &Slice{v: e, orig: v}
		case reflect.Map:
			if e.Type().Key().Kind() == reflect.String {
				return &Dict{v: e, orig: v}
			}
		}
	case reflect.Struct:
		return newStruct(addressable(rv), nil)
	case reflect.Slice, reflect.Array:
		return &Slice{v: addressable(rv)}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return &Dict{v: rv}
		}
	}
	return v
}

func addressable(rv reflect.Value) reflect.Value {
	cp := reflect.New(rv.Type()).Elem()
	cp.Set(rv)
	return cp
}

// TypeName returns the fully qualified name of v's type, e.g.
// "github.com/acme/app/scene.Camera" for a *scene.Camera. Unnamed
// types are named by their Go syntax, except generic mappings which
// are MapType.
func TypeName(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case Map, map[string]any:
		return MapType
	case Typed:
		return x.GraphType()
	case Unwrapper:
		return TypeName(x.Unwrap())
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// IsCallable reports whether v is a function.
func IsCallable(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Func
}

// IsPrimitive reports whether v is nil, a bool, a number or a string.
func IsPrimitive(v any) bool {
	if v == nil {
		return true
	}
	return isPrimitiveKind(reflect.TypeOf(v).Kind())
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
