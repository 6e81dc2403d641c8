package array

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Binding ties an array to an entry of a blob store.
type Binding struct {
	Root   string // directory of the store holding the entry
	ID     string
	Handle any // store specific state, e.g. the mapping backing the data
}

// Dense is an n-dimensional numeric buffer in row-major order.
//
// Its backing storage is either an in-process byte slice or, once bound,
// memory owned by a blob store entry. Writes through Data or SetValue on
// a bound array go straight to the entry.
type Dense struct {
	dtype   DType
	shape   Shape
	data    []byte
	binding *Binding
}

// New returns a zeroed array.
func New(dtype DType, shape Shape) (*Dense, error) {
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("invalid dtype %s", dtype)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense{
		dtype: dtype,
		shape: shape.Clone(),
		data:  make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// FromBytes returns an array backed by data without copying it.
func FromBytes(dtype DType, shape Shape, data []byte) (*Dense, error) {
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("invalid dtype %s", dtype)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if n := shape.NumElements() * dtype.Size(); n != len(data) {
		return nil, fmt.Errorf("shape %v of %s needs %d bytes, got %d", shape, dtype, n, len(data))
	}
	return &Dense{dtype: dtype, shape: shape.Clone(), data: data}, nil
}

// FromSlice returns an array of the given shape holding a copy of vs.
func FromSlice[T Elem](shape Shape, vs []T) (*Dense, error) {
	if shape == nil {
		shape = Shape{len(vs)}
	}
	a, err := New(DTypeOf[T](), shape)
	if err != nil {
		return nil, err
	}
	if len(vs) != a.Len() {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, a.Len(), len(vs))
	}
	copy(Data[T](a), vs)
	return a, nil
}

// Data returns a typed view of a's storage. It panics if T does not
// match a's dtype. The view must not outlive a.
func Data[T Elem](a *Dense) []T {
	if dt := DTypeOf[T](); dt != a.dtype {
		panic(fmt.Sprintf("array: %s view of %s array", dt, a.dtype))
	}
	n := a.Len()
	if n == 0 || len(a.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&a.data[0])), n)
}

func (a *Dense) DType() DType { return a.dtype }

// Shape returns the dimensions of a. The result must not be modified.
func (a *Dense) Shape() Shape { return a.shape }

// Len returns the number of elements.
func (a *Dense) Len() int { return a.shape.NumElements() }

// Bytes returns the raw little-endian storage.
func (a *Dense) Bytes() []byte { return a.data }

// Binding returns the store entry backing a, or nil for in-process arrays.
func (a *Dense) Binding() *Binding { return a.binding }

// Bind switches a's storage to data, which must hold a copy of the
// current content, owned by the store entry described by b.
func (a *Dense) Bind(b *Binding, data []byte) error {
	if len(data) != len(a.data) {
		return fmt.Errorf("binding %s: size %d does not match array size %d", b.ID, len(data), len(a.data))
	}
	a.data = data
	a.binding = b
	return nil
}

// Detach copies a's content into process memory and drops its binding.
func (a *Dense) Detach() {
	if a.binding == nil {
		return
	}
	d := make([]byte, len(a.data))
	copy(d, a.data)
	a.data = d
	a.binding = nil
}

// Clone returns an unbound copy of a.
func (a *Dense) Clone() *Dense {
	d := make([]byte, len(a.data))
	copy(d, a.data)
	return &Dense{dtype: a.dtype, shape: a.shape.Clone(), data: d}
}

// CopyFrom overwrites a's content with src's. dtype and shape must match.
func (a *Dense) CopyFrom(src *Dense) error {
	if a.dtype != src.dtype || !a.shape.Equal(src.shape) {
		return fmt.Errorf("cannot copy %s%v into %s%v", src.dtype, src.shape, a.dtype, a.shape)
	}
	copy(a.data, src.data)
	return nil
}

// Value returns element i (flat index) as a bool, int64, uint64 or float64.
func (a *Dense) Value(i int) any {
	sz := a.dtype.Size()
	b := a.data[i*sz : (i+1)*sz]
	switch a.dtype {
	case Bool:
		return b[0] != 0
	case Int8:
		return int64(int8(b[0]))
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case Int32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case Int64:
		return int64(binary.LittleEndian.Uint64(b))
	case Uint8:
		return uint64(b[0])
	case Uint16:
		return uint64(binary.LittleEndian.Uint16(b))
	case Uint32:
		return uint64(binary.LittleEndian.Uint32(b))
	case Uint64:
		return binary.LittleEndian.Uint64(b)
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	panic("array: invalid dtype")
}

// SetValue stores v at flat index i, converting numeric kinds.
func (a *Dense) SetValue(i int, v any) error {
	sz := a.dtype.Size()
	if i < 0 || i >= a.Len() {
		return fmt.Errorf("index %d out of range [0,%d)", i, a.Len())
	}
	b := a.data[i*sz : (i+1)*sz]
	if a.dtype == Bool {
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot store %T in bool array", v)
		}
		b[0] = 0
		if bv {
			b[0] = 1
		}
		return nil
	}
	var (
		iv    int64
		uv    uint64
		fv    float64
		isInt bool
	)
	switch x := v.(type) {
	case int64:
		iv, uv, fv, isInt = x, uint64(x), float64(x), true
	case int:
		iv, uv, fv, isInt = int64(x), uint64(x), float64(x), true
	case uint64:
		iv, uv, fv, isInt = int64(x), x, float64(x), true
	case float64:
		iv, uv, fv = int64(x), uint64(x), x
	case bool:
		if x {
			iv, uv, fv = 1, 1, 1
		}
		isInt = true
	default:
		return fmt.Errorf("cannot store %T in %s array", v, a.dtype)
	}
	if !isInt && a.dtype.IsInteger() && fv != math.Trunc(fv) {
		return fmt.Errorf("cannot store non-integral %v in %s array", fv, a.dtype)
	}
	if a.dtype.IsInteger() && !a.dtype.holds(v) {
		return fmt.Errorf("%v overflows %s", v, a.dtype)
	}
	switch a.dtype {
	case Int8, Uint8:
		b[0] = byte(uv)
	case Int16, Uint16:
		binary.LittleEndian.PutUint16(b, uint16(uv))
	case Int32, Uint32:
		binary.LittleEndian.PutUint32(b, uint32(uv))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(iv))
	case Uint64:
		binary.LittleEndian.PutUint64(b, uv)
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(fv)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(fv))
	}
	return nil
}

// ToNested returns a's content as nested []any following its shape.
// A 0-dimensional array yields its single element.
func (a *Dense) ToNested() any {
	if len(a.shape) == 0 {
		return a.Value(0)
	}
	off := 0
	var build func(dim int) []any
	build = func(dim int) []any {
		n := a.shape[dim]
		res := make([]any, n)
		for i := range n {
			if dim == len(a.shape)-1 {
				res[i] = a.Value(off)
				off++
				continue
			}
			res[i] = build(dim + 1)
		}
		return res
	}
	return build(0)
}

func (a *Dense) String() string {
	if a.binding != nil {
		return fmt.Sprintf("%s%v@%s", a.dtype, []int(a.shape), a.binding.ID)
	}
	return fmt.Sprintf("%s%v", a.dtype, []int(a.shape))
}
