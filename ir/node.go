package ir

import (
	"math"
	"slices"
)

// Node is a single value of a stored snapshot.
//
// Which fields are meaningful depends on Type:
//
//   - ObjectType: Fields[i] names Values[i]; Tag holds the type tag.
//   - ArrayType: Values holds the elements.
//   - NumberType: exactly one of Int64, Uint64 and Float64 is set.
//     Uint64 only holds integers above math.MaxInt64.
//   - StringType: String.
//   - BoolType: Bool.
//   - ExternType: String holds the blob id.
//   - InlineArrayType: Tag holds the class, DType and Shape describe the
//     buffer and Values holds the outermost level of the nested data.
type Node struct {
	Type        Type
	Parent      *Node
	ParentIndex int
	ParentField string
	Fields      []string
	Values      []*Node

	Tag string

	String  string
	Bool    bool
	Float64 *float64
	Int64   *int64
	Uint64  *uint64

	DType string
	Shape []int
}

// Clone returns a deep copy of y. The copy keeps y's place in its
// parent, so paths below it are unchanged.
func (y *Node) Clone() *Node {
	c := *y
	c.Fields = slices.Clone(y.Fields)
	c.Shape = slices.Clone(y.Shape)
	if y.Int64 != nil {
		i := *y.Int64
		c.Int64 = &i
	}
	if y.Uint64 != nil {
		u := *y.Uint64
		c.Uint64 = &u
	}
	if y.Float64 != nil {
		f := *y.Float64
		c.Float64 = &f
	}
	c.Values = make([]*Node, len(y.Values))
	for i, v := range y.Values {
		cv := v.Clone()
		cv.Parent = &c
		c.Values[i] = cv
	}
	return &c
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromString(v string) *Node {
	return &Node{
		Type:   StringType,
		String: v,
	}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

// FromUint returns an integer node for v, using Int64 when v fits.
func FromUint(v uint64) *Node {
	if v <= math.MaxInt64 {
		return FromInt(int64(v))
	}
	return &Node{
		Type:   NumberType,
		Uint64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func FromSlice(vs []*Node) *Node {
	return (&Node{Type: ArrayType}).setElems(vs)
}

// setElems makes vs the elements of sequence-like y.
func (y *Node) setElems(vs []*Node) *Node {
	y.Values = make([]*Node, len(vs))
	for i, v := range vs {
		v.Parent, v.ParentIndex, v.ParentField = y, i, ""
		y.Values[i] = v
	}
	return y
}

// KeyVal is a single record entry.
type KeyVal struct {
	Key string
	Val *Node
}

// FromFields builds a record from kvs, keeping their order.
func FromFields(tag string, kvs []KeyVal) *Node {
	res := &Node{
		Type:   ObjectType,
		Tag:    tag,
		Fields: make([]string, len(kvs)),
		Values: make([]*Node, len(kvs)),
	}
	for i := range kvs {
		kv := &kvs[i]
		kv.Val.Parent = res
		kv.Val.ParentIndex = i
		kv.Val.ParentField = kv.Key
		res.Fields[i] = kv.Key
		res.Values[i] = kv.Val
	}
	return res
}

// Extern returns a reference to the blob named id.
func Extern(id string) *Node {
	return &Node{
		Type:   ExternType,
		Tag:    ExternClass,
		String: id,
	}
}

// InlineArray returns an inline array node. data is the outermost
// level of the nested element lists; for a 0-dimensional array it
// holds the single element.
func InlineArray(dtype string, shape []int, data []*Node) *Node {
	res := &Node{
		Type:  InlineArrayType,
		Tag:   InlineArrayClass,
		DType: dtype,
		Shape: slices.Clone(shape),
	}
	return res.setElems(data)
}

// Append adds a field to a record.
func (y *Node) Append(key string, v *Node) {
	v.Parent = y
	v.ParentIndex = len(y.Values)
	v.ParentField = key
	y.Fields = append(y.Fields, key)
	y.Values = append(y.Values, v)
}

// Get returns the value of field in record y, or nil.
func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	for i, f := range y.Fields {
		if f == field {
			return y.Values[i]
		}
	}
	return nil
}

// Visit calls f on y before and after its descendants. Descendants are
// visited only when the pre-order call returns true.
func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

// ExternRefs returns the blob ids referenced anywhere below y, in
// document order and without duplicates.
func ExternRefs(y *Node) []string {
	var res []string
	seen := map[string]bool{}
	_ = y.Visit(func(n *Node, isPost bool) (bool, error) {
		if isPost {
			return false, nil
		}
		if n.Type == ExternType && !seen[n.String] {
			seen[n.String] = true
			res = append(res, n.String)
		}
		return !n.Type.IsLeaf(), nil
	})
	return res
}
