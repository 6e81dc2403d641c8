package graphstore

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/signadot/graphstore/array"
	"github.com/signadot/graphstore/blob"
	"github.com/signadot/graphstore/ir"
	"github.com/signadot/graphstore/live"
)

type serializer struct {
	*pass
}

// serialize returns the stored form of v, found under key in its parent
// ("" for sequence elements and the root). ok is false when v is
// dropped.
func (s *serializer) serialize(v any, key, path string) (y *ir.Node, ok bool, err error) {
	o := s.opts
	if o.HidePrivate && key != "" && o.PrivatePrefix != "" && strings.HasPrefix(key, o.PrivatePrefix) {
		return nil, false, nil
	}
	if live.IsCallable(v) {
		return nil, false, nil
	}
	if a, isArray := v.(*array.Dense); isArray {
		if a == nil {
			return ir.Null(), true, nil
		}
		return s.array(a)
	}
	w := live.Wrap(v)
	switch x := w.(type) {
	case live.HasIndex:
		n := x.Len()
		vs := make([]*ir.Node, 0, n)
		for i := range n {
			e, keep, err := s.serialize(x.Index(i), "", ir.IndexPath(path, i))
			if err != nil {
				return nil, false, err
			}
			if keep {
				vs = append(vs, e)
			}
		}
		return ir.FromSlice(vs), true, nil
	case live.Stateful:
		st, keep, err := s.serialize(x.GraphState(), "", path)
		if err != nil || !keep {
			return nil, false, err
		}
		if st.Type != ir.ObjectType {
			s.warn(path, fmt.Errorf("%w: state of %T is a %s", ErrUnserializableValue, v, st.Type))
			return nil, false, nil
		}
		st.Tag = live.TypeName(v)
		return st, true, nil
	case live.HasFields:
		names := x.FieldNames()
		kvs := make([]ir.KeyVal, 0, len(names))
		for _, name := range names {
			fv, present := x.Field(name)
			if !present {
				continue
			}
			fpath := ir.FieldPath(path, name)
			if name == ir.ClassKey {
				s.warn(fpath, fmt.Errorf("%w: reserved field name", ErrUnserializableValue))
				continue
			}
			e, keep, err := s.serialize(fv, name, fpath)
			if err != nil {
				return nil, false, err
			}
			if keep {
				kvs = append(kvs, ir.KeyVal{Key: name, Val: e})
			}
		}
		return ir.FromFields(live.TypeName(w), kvs), true, nil
	}
	if y, isPrim := primitive(v); isPrim {
		return y, true, nil
	}
	s.warn(path, fmt.Errorf("%w: %T", ErrUnserializableValue, v))
	return nil, false, nil
}

// array stores a. Arrays not bound to the store are written as blobs
// when larger than the threshold and inlined otherwise; arrays bound to
// the store keep their blob.
func (s *serializer) array(a *array.Dense) (*ir.Node, bool, error) {
	if s.store.Owns(a) {
		id, err := s.store.Touch(a)
		switch {
		case err == nil:
			s.reused++
			return ir.Extern(id), true, nil
		case errors.Is(err, blob.ErrMissingBlob):
			// the entry was collected while a was still in use
			s.log.Debug("rewriting collected blob", "id", a.Binding().ID)
		default:
			return nil, false, err
		}
	} else if a.Len() <= s.opts.Threshold {
		return inlineArray(a), true, nil
	}
	id, err := s.store.Put(a)
	if err != nil {
		return nil, false, err
	}
	s.written++
	return ir.Extern(id), true, nil
}

func primitive(v any) (*ir.Node, bool) {
	if v == nil {
		return ir.Null(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return ir.FromBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.FromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.FromUint(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return ir.FromFloat(rv.Float()), true
	case reflect.String:
		return ir.FromString(rv.String()), true
	}
	return nil, false
}
