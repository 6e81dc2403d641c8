package live

import (
	"fmt"
	"reflect"
)

// Slice exposes a Go slice or array as a HasIndex. Arrays cannot grow.
type Slice struct {
	v    reflect.Value // addressable
	orig any
}

func (s *Slice) Len() int { return s.v.Len() }

func (s *Slice) Index(i int) any { return slot(s.v.Index(i)) }

func (s *Slice) SetIndex(i int, v any) error {
	if i < 0 || i >= s.v.Len() {
		return fmt.Errorf("index %d out of range [0,%d)", i, s.v.Len())
	}
	return assign(s.v.Index(i), v)
}

func (s *Slice) Append(v any) error {
	if s.v.Kind() != reflect.Slice {
		return fmt.Errorf("cannot append to %s", s.v.Type())
	}
	e := reflect.New(s.v.Type().Elem()).Elem()
	if err := assign(e, v); err != nil {
		return err
	}
	s.v.Set(reflect.Append(s.v, e))
	return nil
}

func (s *Slice) Construct(string) (any, bool) {
	return construct(s.v.Type().Elem())
}

func (s *Slice) Unwrap() any {
	if s.orig != nil {
		return s.orig
	}
	return s.v.Interface()
}
