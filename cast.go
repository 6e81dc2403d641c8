package graphstore

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/signadot/graphstore/ir"
)

// convert returns the primitive val as a value of cur's type.
//
// Values of the same kind family (bool, integer, float, string) convert
// when they fit. Under CastSafe integers and floats also convert into
// each other when no precision is lost, and numbers, bools and strings
// convert through their text form.
func convert(cur any, val *ir.Node, policy CastPolicy) (any, error) {
	rt := reflect.TypeOf(cur)
	out := reflect.New(rt).Elem()
	safe := policy == CastSafe
	var err error
	switch val.Type {
	case ir.BoolType:
		switch {
		case out.Kind() == reflect.Bool:
			out.SetBool(val.Bool)
		case safe && out.Kind() == reflect.String:
			out.SetString(strconv.FormatBool(val.Bool))
		default:
			err = errMismatch(val, rt)
		}
	case ir.StringType:
		switch {
		case out.Kind() == reflect.String:
			out.SetString(val.String)
		case safe:
			err = parseInto(out, val.String)
		default:
			err = errMismatch(val, rt)
		}
	case ir.NumberType:
		switch {
		case val.Int64 != nil:
			err = setInt(out, *val.Int64, safe)
		case val.Uint64 != nil:
			err = setUint(out, *val.Uint64, safe)
		case val.Float64 != nil:
			err = setFloat(out, *val.Float64, safe)
		default:
			err = errMismatch(val, rt)
		}
	default:
		err = errMismatch(val, rt)
	}
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func errMismatch(val *ir.Node, rt reflect.Type) error {
	return fmt.Errorf("cannot convert %s to %s", val.Type, rt)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func setInt(out reflect.Value, i int64, safe bool) error {
	k := out.Kind()
	switch {
	case isInt(k):
		if out.OverflowInt(i) {
			return fmt.Errorf("%d overflows %s", i, out.Type())
		}
		out.SetInt(i)
	case isUint(k):
		if i < 0 || out.OverflowUint(uint64(i)) {
			return fmt.Errorf("%d overflows %s", i, out.Type())
		}
		out.SetUint(uint64(i))
	case safe && isFloat(k):
		out.SetFloat(float64(i))
	case safe && k == reflect.String:
		out.SetString(strconv.FormatInt(i, 10))
	default:
		return fmt.Errorf("cannot convert integer to %s", out.Type())
	}
	return nil
}

func setUint(out reflect.Value, u uint64, safe bool) error {
	k := out.Kind()
	switch {
	case isUint(k):
		if out.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, out.Type())
		}
		out.SetUint(u)
	case isInt(k):
		if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
			return fmt.Errorf("%d overflows %s", u, out.Type())
		}
		out.SetInt(int64(u))
	case safe && isFloat(k):
		out.SetFloat(float64(u))
	case safe && k == reflect.String:
		out.SetString(strconv.FormatUint(u, 10))
	default:
		return fmt.Errorf("cannot convert integer to %s", out.Type())
	}
	return nil
}

func setFloat(out reflect.Value, f float64, safe bool) error {
	k := out.Kind()
	integral := f == math.Trunc(f) && !math.IsInf(f, 0)
	switch {
	case isFloat(k):
		if out.OverflowFloat(f) {
			return fmt.Errorf("%g overflows %s", f, out.Type())
		}
		out.SetFloat(f)
	case safe && isInt(k) && integral && f >= math.MinInt64 && f < math.MaxInt64:
		return setInt(out, int64(f), safe)
	case safe && isUint(k) && integral && f >= 0 && f < math.MaxUint64:
		u := uint64(f)
		if out.OverflowUint(u) {
			return fmt.Errorf("%g overflows %s", f, out.Type())
		}
		out.SetUint(u)
	case safe && k == reflect.String:
		out.SetString(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		return fmt.Errorf("cannot convert %g to %s", f, out.Type())
	}
	return nil
}

func parseInto(out reflect.Value, s string) error {
	k := out.Kind()
	switch {
	case k == reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		out.SetBool(b)
		return nil
	case isInt(k) || isUint(k):
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return setInt(out, i, true)
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return setUint(out, u, true)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		return setFloat(out, f, true)
	case isFloat(k):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		return setFloat(out, f, true)
	}
	return fmt.Errorf("cannot convert string to %s", out.Type())
}
