package live

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

var errNilMap = errors.New("assignment to nil map")

// Map is a generic mapping. It accepts new keys on load.
type Map map[string]any

// FieldNames returns the keys in sorted order.
func (m Map) FieldNames() []string {
	return slices.Sorted(maps.Keys(m))
}

func (m Map) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m Map) SetField(name string, v any) error {
	if m == nil {
		return errNilMap
	}
	m[name] = Unwrap(v)
	return nil
}

func (m Map) AddField(name string, v any) error {
	return m.SetField(name, v)
}

func (m Map) Unwrap() any { return map[string]any(m) }

// Dict exposes a Go map with string keys. Like Map it accepts new keys.
type Dict struct {
	v    reflect.Value
	orig any
}

func (d *Dict) key(name string) reflect.Value {
	return reflect.ValueOf(name).Convert(d.v.Type().Key())
}

func (d *Dict) FieldNames() []string {
	names := make([]string, 0, d.v.Len())
	for _, k := range d.v.MapKeys() {
		names = append(names, k.String())
	}
	slices.Sort(names)
	return names
}

func (d *Dict) Field(name string) (any, bool) {
	e := d.v.MapIndex(d.key(name))
	if !e.IsValid() {
		return nil, false
	}
	return slot(e), true
}

func (d *Dict) SetField(name string, v any) error {
	if d.v.IsNil() {
		if !d.v.CanSet() {
			return errNilMap
		}
		d.v.Set(reflect.MakeMap(d.v.Type()))
	}
	e := reflect.New(d.v.Type().Elem()).Elem()
	if err := assign(e, v); err != nil {
		return fmt.Errorf("key %q: %w", name, err)
	}
	d.v.SetMapIndex(d.key(name), e)
	return nil
}

func (d *Dict) AddField(name string, v any) error {
	return d.SetField(name, v)
}

func (d *Dict) Construct(string) (any, bool) {
	return construct(d.v.Type().Elem())
}

func (d *Dict) Unwrap() any {
	if d.orig != nil {
		return d.orig
	}
	return d.v.Interface()
}
