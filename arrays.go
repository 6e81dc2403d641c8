package graphstore

import (
	"fmt"

	"github.com/signadot/graphstore/array"
	"github.com/signadot/graphstore/ir"
)

// inlineArray returns the inline form of a.
func inlineArray(a *array.Dense) *ir.Node {
	dt := a.DType().String()
	if len(a.Shape()) == 0 {
		return ir.InlineArray(dt, nil, []*ir.Node{elemNode(a.Value(0))})
	}
	nested := a.ToNested().([]any)
	data := make([]*ir.Node, len(nested))
	for i, v := range nested {
		data[i] = nestedNode(v)
	}
	return ir.InlineArray(dt, a.Shape(), data)
}

func nestedNode(v any) *ir.Node {
	vs, ok := v.([]any)
	if !ok {
		return elemNode(v)
	}
	res := make([]*ir.Node, len(vs))
	for i, e := range vs {
		res[i] = nestedNode(e)
	}
	return ir.FromSlice(res)
}

func elemNode(v any) *ir.Node {
	switch x := v.(type) {
	case bool:
		return ir.FromBool(x)
	case int64:
		return ir.FromInt(x)
	case uint64:
		return ir.FromUint(x)
	case float64:
		return ir.FromFloat(x)
	}
	panic(fmt.Sprintf("unexpected array element %T", v))
}

// materialize decodes an inline array node. The nested data is checked
// against the shape before anything is allocated.
func materialize(y *ir.Node) (*array.Dense, error) {
	dt, err := array.ParseDType(y.DType)
	if err != nil {
		return nil, err
	}
	shape := array.Shape(y.Shape)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	var flat []*ir.Node
	if len(shape) == 0 {
		if len(y.Values) != 1 {
			return nil, fmt.Errorf("scalar array has %d elements", len(y.Values))
		}
		flat = y.Values
	} else {
		var walk func(vs []*ir.Node, depth int) error
		walk = func(vs []*ir.Node, depth int) error {
			if len(vs) != shape[depth] {
				return fmt.Errorf("dimension %d has %d elements, shape says %d", depth, len(vs), shape[depth])
			}
			if depth == len(shape)-1 {
				flat = append(flat, vs...)
				return nil
			}
			for _, v := range vs {
				if v.Type != ir.ArrayType {
					return fmt.Errorf("dimension %d holds %s, want a sequence", depth+1, v.Type)
				}
				if err := walk(v.Values, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(y.Values, 0); err != nil {
			return nil, err
		}
	}
	if len(flat) != shape.NumElements() {
		return nil, fmt.Errorf("%d elements for shape %v", len(flat), y.Shape)
	}
	a, err := array.New(dt, shape)
	if err != nil {
		return nil, err
	}
	for i, v := range flat {
		var x any
		switch {
		case v.Type == ir.BoolType:
			x = v.Bool
		case v.Type == ir.NumberType && v.Int64 != nil:
			x = *v.Int64
		case v.Type == ir.NumberType && v.Uint64 != nil:
			x = *v.Uint64
		case v.Type == ir.NumberType && v.Float64 != nil:
			x = *v.Float64
		default:
			return nil, fmt.Errorf("invalid array element of type %s", v.Type)
		}
		if err := a.SetValue(i, x); err != nil {
			return nil, err
		}
	}
	return a, nil
}
