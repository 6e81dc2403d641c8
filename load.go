package graphstore

import (
	"errors"
	"fmt"

	"github.com/signadot/graphstore/array"
	"github.com/signadot/graphstore/blob"
	"github.com/signadot/graphstore/ir"
	"github.com/signadot/graphstore/live"
)

type loader struct {
	*pass
}

// load merges val into cur and returns the merged value, which the
// caller stores back into the slot cur came from. parent and slot name
// that slot, for constructing values when cur is nil. ok is false when
// val is dropped, in which case the slot is left as is.
func (l *loader) load(cur any, val *ir.Node, parent any, slot string) (res any, ok bool, err error) {
	w := live.Wrap(cur)
	switch val.Type {
	case ir.ExternType, ir.InlineArrayType:
		return l.array(w, val)
	}
	if st, isStateful := w.(live.Stateful); isStateful && val.Type == ir.ObjectType {
		return l.state(st, val)
	}
	if f, hasFields := w.(live.HasFields); hasFields && val.Type == ir.ObjectType {
		return w, true, l.fields(f, val)
	}
	if s, hasIndex := w.(live.HasIndex); hasIndex && val.Type == ir.ArrayType {
		return w, true, l.index(s, val)
	}
	if cur == nil {
		switch {
		case val.Type == ir.ObjectType:
			return l.construct(val, parent, slot)
		case val.Type == ir.NullType:
			return nil, true, nil
		}
		if c, isCons := parent.(live.Constructor); isCons {
			if z, ok := c.Construct(slot); ok && z != nil {
				return l.load(z, val, nil, "")
			}
		}
		return l.adopt(val)
	}
	if !live.IsPrimitive(cur) {
		l.warn(val.Path(), fmt.Errorf("%w: %s into %s", ErrIncompatibleMerge, val.Type, live.TypeName(cur)))
		return nil, false, nil
	}
	v, err := convert(cur, val, l.opts.Cast)
	if err != nil {
		l.warn(val.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
		return nil, false, nil
	}
	return v, true, nil
}

// fields loads the fields of record val present in f. Fields missing
// from f are dropped unless f is Extensible; fields of f missing from
// val are left alone.
func (l *loader) fields(f live.HasFields, val *ir.Node) error {
	for i, name := range val.Fields {
		sv := val.Values[i]
		cur, present := f.Field(name)
		if !present {
			e, isExt := f.(live.Extensible)
			if !isExt {
				l.log.Debug("dropping field", "path", sv.Path())
				continue
			}
			res, keep, err := l.load(nil, sv, f, name)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if err := e.AddField(name, live.Unwrap(res)); err != nil {
				l.warn(sv.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
			}
			continue
		}
		res, keep, err := l.load(cur, sv, f, name)
		if err != nil {
			return err
		}
		if !keep {
			continue
		}
		if err := f.SetField(name, live.Unwrap(res)); err != nil {
			l.warn(sv.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
		}
	}
	return nil
}

// index loads sequence val into s element by element. Elements beyond
// the end of s are constructed and appended; elements beyond the end of
// val are kept.
func (l *loader) index(s live.HasIndex, val *ir.Node) error {
	n := s.Len()
	for i, sv := range val.Values {
		if i < n {
			res, keep, err := l.load(s.Index(i), sv, s, "")
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if err := s.SetIndex(i, live.Unwrap(res)); err != nil {
				l.warn(sv.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
			}
			continue
		}
		res, keep, err := l.load(nil, sv, s, "")
		if err != nil {
			return err
		}
		if !keep {
			continue
		}
		if err := s.Append(live.Unwrap(res)); err != nil {
			l.warn(sv.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
		}
	}
	return nil
}

// construct builds a fresh value for record val: from the registry by
// type tag, else from the static type of the slot, else a Map when the
// record is untagged.
func (l *loader) construct(val *ir.Node, parent any, slot string) (any, bool, error) {
	var fresh any
	if val.Tag != "" {
		if f, ok := l.opts.Registry.Resolve(val.Tag); ok {
			fresh = f()
		}
	}
	if fresh == nil {
		if c, ok := parent.(live.Constructor); ok {
			fresh, _ = c.Construct(slot)
		}
	}
	if fresh == nil && val.Tag == "" {
		fresh = live.Map{}
	}
	if fresh == nil {
		l.warn(val.Path(), fmt.Errorf("%w: %q", ErrUnresolvableType, val.Tag))
		return nil, false, nil
	}
	return l.load(fresh, val, nil, "")
}

func (l *loader) state(st live.Stateful, val *ir.Node) (any, bool, error) {
	untagged := val.Clone()
	untagged.Tag = ""
	state, keep, err := l.load(live.Map{}, untagged, nil, "")
	if err != nil || !keep {
		return nil, false, err
	}
	if err := st.SetGraphState(live.Unwrap(state)); err != nil {
		l.warn(val.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
		return nil, false, nil
	}
	return st, true, nil
}

// adopt converts a leaf or sequence to plain Go values.
func (l *loader) adopt(val *ir.Node) (any, bool, error) {
	switch val.Type {
	case ir.NullType:
		return nil, true, nil
	case ir.BoolType:
		return val.Bool, true, nil
	case ir.StringType:
		return val.String, true, nil
	case ir.NumberType:
		if val.Int64 != nil {
			return *val.Int64, true, nil
		}
		if val.Uint64 != nil {
			return *val.Uint64, true, nil
		}
		if val.Float64 != nil {
			return *val.Float64, true, nil
		}
	case ir.ArrayType:
		res := make([]any, 0, len(val.Values))
		for _, sv := range val.Values {
			v, keep, err := l.load(nil, sv, nil, "")
			if err != nil {
				return nil, false, err
			}
			if keep {
				res = append(res, live.Unwrap(v))
			}
		}
		return res, true, nil
	}
	l.warn(val.Path(), fmt.Errorf("%w: cannot adopt %s", ErrIncompatibleMerge, val.Type))
	return nil, false, nil
}

// array materializes an array node and merges it into w.
//
// An extern reference to the blob w is already bound to keeps w, and an
// inline array of w's dtype and shape is copied into w. Otherwise the
// materialized array replaces w.
func (l *loader) array(w any, val *ir.Node) (any, bool, error) {
	cur, isArray := w.(*array.Dense)
	if !isArray && w != nil {
		l.warn(val.Path(), fmt.Errorf("%w: array into %s", ErrIncompatibleMerge, live.TypeName(w)))
		return nil, false, nil
	}
	switch val.Type {
	case ir.ExternType:
		id := val.String
		if cur != nil && l.store.Owns(cur) && cur.Binding().ID == id {
			l.store.Mark(id)
			l.reused++
			return cur, true, nil
		}
		a, err := l.store.Get(id)
		if err != nil {
			var fe *blob.FormatError
			if errors.Is(err, blob.ErrMissingBlob) || errors.As(err, &fe) {
				l.warn(val.Path(), err)
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("loading blob %s: %w", id, err)
		}
		l.store.Mark(id)
		return a, true, nil
	default:
		a, err := materialize(val)
		if err != nil {
			l.warn(val.Path(), fmt.Errorf("%w: %v", ErrIncompatibleMerge, err))
			return nil, false, nil
		}
		if cur != nil && cur.DType() == a.DType() && cur.Shape().Equal(a.Shape()) {
			cur.Detach()
			if err := cur.CopyFrom(a); err != nil {
				return nil, false, err
			}
			return cur, true, nil
		}
		return a, true, nil
	}
}
