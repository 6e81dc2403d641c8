package array

import (
	"fmt"
	"math"
	"reflect"
)

// Elem is a constraint for Go types that can back an array.
type Elem interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// DType represents the runtime element type of an array.
type DType int

const (
	Invalid DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var dtypeNames = map[DType]string{
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

// Size returns the byte size of one element.
func (dt DType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func (dt DType) String() string {
	if s, ok := dtypeNames[dt]; ok {
		return s
	}
	return "invalid"
}

func (dt DType) IsInteger() bool {
	return Int8 <= dt && dt <= Uint64
}

// bounds returns the range of an integer dtype.
func (dt DType) bounds() (lo int64, hi uint64) {
	switch dt {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Uint8:
		return 0, math.MaxUint8
	case Uint16:
		return 0, math.MaxUint16
	case Uint32:
		return 0, math.MaxUint32
	}
	return 0, math.MaxUint64
}

// holds reports whether the integral value v is in the range of
// integer dtype dt.
func (dt DType) holds(v any) bool {
	lo, hi := dt.bounds()
	switch x := v.(type) {
	case int:
		return int64(x) >= lo && (x < 0 || uint64(x) <= hi)
	case int64:
		return x >= lo && (x < 0 || uint64(x) <= hi)
	case uint64:
		return x <= hi
	case float64:
		return x >= float64(lo) && x < float64(hi)+1
	}
	return true
}

// ParseDType returns the dtype named s.
func ParseDType(s string) (DType, error) {
	for dt, name := range dtypeNames {
		if name == s {
			return dt, nil
		}
	}
	return Invalid, fmt.Errorf("unsupported dtype %q", s)
}

// DTypeOf returns the dtype backing values of type T.
func DTypeOf[T Elem]() DType {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return Invalid
}
