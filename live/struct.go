package live

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Struct exposes the exported fields of a struct as a HasFields.
//
// Field names default to the Go names and may be overridden with a
// `graph:"name"` tag; `graph:"-"` excludes a field.
type Struct struct {
	v    reflect.Value // addressable
	orig any
	fs   *structFields
}

type structFields struct {
	names []string
	index map[string][]int
}

var fieldCache sync.Map // reflect.Type -> *structFields

func newStruct(v reflect.Value, orig any) *Struct {
	return &Struct{v: v, orig: orig, fs: fieldsOf(v.Type())}
}

func fieldsOf(t reflect.Type) *structFields {
	if fs, ok := fieldCache.Load(t); ok {
		return fs.(*structFields)
	}
	fs := &structFields{index: map[string][]int{}}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				// promoted fields are visited on their own
				continue
			}
		}
		name, _, _ := strings.Cut(f.Tag.Get("graph"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, dup := fs.index[name]; dup {
			continue
		}
		fs.names = append(fs.names, name)
		fs.index[name] = f.Index
	}
	res, _ := fieldCache.LoadOrStore(t, fs)
	return res.(*structFields)
}

func (s *Struct) field(name string) (reflect.Value, bool) {
	idx, ok := s.fs.index[name]
	if !ok {
		return reflect.Value{}, false
	}
	fv, err := s.v.FieldByIndexErr(idx)
	if err != nil {
		// promoted through a nil embedded pointer
		return reflect.Value{}, false
	}
	return fv, true
}

func (s *Struct) FieldNames() []string { return s.fs.names }

// Field returns the value of a field. Struct, slice and array fields
// are returned by address so that they can be modified in place.
func (s *Struct) Field(name string) (any, bool) {
	fv, ok := s.field(name)
	if !ok {
		return nil, false
	}
	return slot(fv), true
}

func (s *Struct) SetField(name string, v any) error {
	fv, ok := s.field(name)
	if !ok {
		return fmt.Errorf("%s has no field %q", s.v.Type(), name)
	}
	return assign(fv, v)
}

func (s *Struct) Construct(name string) (any, bool) {
	idx, ok := s.fs.index[name]
	if !ok {
		return nil, false
	}
	return construct(s.v.Type().FieldByIndex(idx).Type)
}

func (s *Struct) Unwrap() any {
	if s.orig != nil {
		return s.orig
	}
	return s.v.Interface()
}
