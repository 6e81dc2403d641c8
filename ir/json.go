package ir

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	// ClassKey is the record key holding the type tag.
	ClassKey = "__class__"
	// ExternClass tags a reference to an externalized buffer.
	ExternClass = "__extern__"
	// InlineArrayClass tags a small array stored in place. It is the
	// qualified name of the array type.
	InlineArrayClass = "github.com/signadot/graphstore/array.Dense"
	// LegacyInlineArrayClass is accepted on decode for older snapshots.
	LegacyInlineArrayClass = "numpy.ndarray"

	shortInlineArrayClass = "ndarray"

	floatClass = "float"
)

// Encode writes y to w as indented JSON.
func Encode(y *Node, w io.Writer) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}
	e.node(y, 0)
	if e.err != nil {
		return e.err
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// Marshal returns the JSON encoding of y.
func Marshal(y *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(y, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) indent(depth int) {
	e.w.WriteByte('\n')
	for range depth {
		e.w.WriteString("  ")
	}
}

func (e *encoder) str(s string) {
	d, err := json.Marshal(s)
	if err != nil && e.err == nil {
		e.err = err
	}
	e.w.Write(d)
}

type field struct {
	key string
	val func(depth int)
}

func (e *encoder) object(fields []field, depth int) {
	if len(fields) == 0 {
		e.w.WriteString("{}")
		return
	}
	e.w.WriteByte('{')
	for i, f := range fields {
		if i != 0 {
			e.w.WriteByte(',')
		}
		e.indent(depth + 1)
		e.str(f.key)
		e.w.WriteString(": ")
		f.val(depth + 1)
	}
	e.indent(depth)
	e.w.WriteByte('}')
}

func (e *encoder) array(vs []*Node, depth int) {
	if len(vs) == 0 {
		e.w.WriteString("[]")
		return
	}
	// leaf-only sequences are kept on one line, nested data is not
	flat := true
	for _, v := range vs {
		if !v.Type.IsLeaf() || v.Type == ExternType {
			flat = false
			break
		}
	}
	e.w.WriteByte('[')
	for i, v := range vs {
		if i != 0 {
			e.w.WriteByte(',')
			if flat {
				e.w.WriteByte(' ')
			}
		}
		if !flat {
			e.indent(depth + 1)
		}
		e.node(v, depth+1)
	}
	if !flat {
		e.indent(depth)
	}
	e.w.WriteByte(']')
}

func (e *encoder) strVal(s string) func(int) {
	return func(int) { e.str(s) }
}

func (e *encoder) node(y *Node, depth int) {
	switch y.Type {
	case NullType:
		e.w.WriteString("null")
	case BoolType:
		e.w.WriteString(strconv.FormatBool(y.Bool))
	case StringType:
		e.str(y.String)
	case NumberType:
		switch {
		case y.Int64 != nil:
			e.w.WriteString(strconv.FormatInt(*y.Int64, 10))
		case y.Uint64 != nil:
			e.w.WriteString(strconv.FormatUint(*y.Uint64, 10))
		case y.Float64 != nil:
			e.float(*y.Float64, depth)
		default:
			e.w.WriteString("0")
		}
	case ArrayType:
		e.array(y.Values, depth)
	case ObjectType:
		fields := make([]field, 0, len(y.Fields)+1)
		for i, k := range y.Fields {
			v := y.Values[i]
			fields = append(fields, field{key: k, val: func(d int) { e.node(v, d) }})
		}
		if y.Tag != "" {
			fields = append(fields, field{key: ClassKey, val: e.strVal(y.Tag)})
		}
		e.object(fields, depth)
	case ExternType:
		e.object([]field{
			{key: ClassKey, val: e.strVal(ExternClass)},
			{key: "path", val: e.strVal(y.String)},
		}, depth)
	case InlineArrayType:
		tag := y.Tag
		if tag == "" {
			tag = InlineArrayClass
		}
		shape := make([]*Node, len(y.Shape))
		for i, d := range y.Shape {
			shape[i] = FromInt(int64(d))
		}
		fields := []field{
			{key: ClassKey, val: e.strVal(tag)},
			{key: "dtype", val: e.strVal(y.DType)},
			{key: "shape", val: func(d int) { e.array(shape, d) }},
		}
		if len(y.Shape) == 0 && len(y.Values) == 1 {
			fields = append(fields, field{key: "data", val: func(d int) { e.node(y.Values[0], d) }})
		} else {
			fields = append(fields, field{key: "data", val: func(d int) { e.array(y.Values, d) }})
		}
		e.object(fields, depth)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("%w: cannot encode node of type %s", ErrBadFormat, y.Type)
		}
	}
}

func (e *encoder) float(f float64, depth int) {
	var repr string
	switch {
	case math.IsNaN(f):
		repr = "nan"
	case math.IsInf(f, 1):
		repr = "inf"
	case math.IsInf(f, -1):
		repr = "-inf"
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		e.w.WriteString(s)
		return
	}
	e.object([]field{
		{key: ClassKey, val: e.strVal(floatClass)},
		{key: "repr", val: e.strVal(repr)},
	}, depth)
}

// Decode reads a single JSON document from r.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	d := &decoder{dec: dec}
	tok, err := d.token()
	if err != nil {
		return nil, err
	}
	res, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, d.errorf(nil, "trailing data after document")
	}
	return res, nil
}

// Unmarshal decodes data as a single JSON document.
func Unmarshal(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

type decoder struct {
	dec *json.Decoder
}

func (d *decoder) errorf(err error, format string, args ...any) error {
	return &DecodeError{
		Offset: d.dec.InputOffset(),
		Msg:    fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (d *decoder) token() (json.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, d.errorf(io.ErrUnexpectedEOF, "unexpected end of input")
		}
		return nil, d.errorf(err, "invalid json")
	}
	return tok, nil
}

func (d *decoder) value(tok json.Token) (*Node, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(t), nil
	case string:
		return FromString(t), nil
	case json.Number:
		return d.number(t)
	case json.Delim:
		switch t {
		case '[':
			return d.sequence()
		case '{':
			return d.record()
		}
	}
	return nil, d.errorf(nil, "unexpected token %v", tok)
}

func (d *decoder) number(n json.Number) (*Node, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return FromInt(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return FromUint(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, d.errorf(err, "invalid number %q", s)
	}
	return FromFloat(f), nil
}

func (d *decoder) sequence() (*Node, error) {
	var vs []*Node
	for {
		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			break
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return FromSlice(vs), nil
}

func (d *decoder) record() (*Node, error) {
	res := &Node{Type: ObjectType}
	for {
		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim('}') {
			break
		}
		key, ok := tok.(string)
		if !ok {
			return nil, d.errorf(nil, "expected object key, got %v", tok)
		}
		tok, err = d.token()
		if err != nil {
			return nil, err
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		if key == ClassKey {
			if v.Type != StringType {
				return nil, d.errorf(nil, "%s must be a string, got %s", ClassKey, v.Type)
			}
			res.Tag = v.String
			continue
		}
		res.Append(key, v)
	}
	return d.classify(res)
}

// classify turns records with a reserved class into the matching node type.
func (d *decoder) classify(rec *Node) (*Node, error) {
	switch rec.Tag {
	case ExternClass:
		p := Get(rec, "path")
		if p == nil || p.Type != StringType {
			return nil, d.errorf(nil, "extern reference without path")
		}
		return Extern(p.String), nil
	case floatClass:
		r := Get(rec, "repr")
		if r == nil || r.Type != StringType {
			break
		}
		switch r.String {
		case "nan":
			return FromFloat(math.NaN()), nil
		case "inf":
			return FromFloat(math.Inf(1)), nil
		case "-inf":
			return FromFloat(math.Inf(-1)), nil
		}
		return nil, d.errorf(nil, "invalid float repr %q", r.String)
	case InlineArrayClass, LegacyInlineArrayClass, shortInlineArrayClass:
		dt := Get(rec, "dtype")
		data := Get(rec, "data")
		if dt == nil || dt.Type != StringType || data == nil {
			break
		}
		shape, err := d.shape(Get(rec, "shape"), data)
		if err != nil {
			return nil, err
		}
		var vs []*Node
		if data.Type == ArrayType {
			vs = data.Values
		} else {
			vs = []*Node{data}
		}
		res := InlineArray(dt.String, shape, vs)
		res.Tag = rec.Tag
		return res, nil
	}
	return rec, nil
}

func (d *decoder) shape(s, data *Node) ([]int, error) {
	if s == nil {
		var res []int
		for data.Type == ArrayType {
			res = append(res, len(data.Values))
			if len(data.Values) == 0 {
				break
			}
			data = data.Values[0]
		}
		return res, nil
	}
	if s.Type != ArrayType {
		return nil, d.errorf(nil, "array shape must be a sequence, got %s", s.Type)
	}
	res := make([]int, len(s.Values))
	for i, v := range s.Values {
		if v.Type != NumberType || v.Int64 == nil || *v.Int64 < 0 {
			return nil, d.errorf(nil, "invalid array dimension at %d", i)
		}
		res[i] = int(*v.Int64)
	}
	return res, nil
}
