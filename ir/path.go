package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Path returns the location of y in its tree, e.g. "$.items[2].name".
func (y *Node) Path() string {
	if y.Parent == nil {
		return "$"
	}
	switch y.Parent.Type {
	case ObjectType:
		return FieldPath(y.Parent.Path(), y.ParentField)
	case ArrayType, InlineArrayType:
		return IndexPath(y.Parent.Path(), y.ParentIndex)
	}
	panic("parent is not a container")
}

// FieldPath extends path p by field f.
func FieldPath(p, f string) string {
	return p + "." + quoteField(f)
}

// IndexPath extends path p by index i.
func IndexPath(p string, i int) string {
	return p + "[" + strconv.Itoa(i) + "]"
}

// quoteField single-quotes field names that would not scan back as a
// single field.
func quoteField(f string) string {
	if f != "" && !strings.ContainsAny(f, `'.$[]\`) {
		return f
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(f); i++ {
		if f[i] == '\'' || f[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(f[i])
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Step is one step of a GraphPath: a record field, or a sequence index
// when IsIndex is set.
type Step struct {
	Field   string
	Index   int
	IsIndex bool
}

// GraphPath is a parsed path. The empty GraphPath is the root "$".
type GraphPath []Step

func (p GraphPath) String() string {
	res := "$"
	for _, s := range p {
		if s.IsIndex {
			res = IndexPath(res, s.Index)
		} else {
			res = FieldPath(res, s.Field)
		}
	}
	return res
}

// ParsePath parses a path of the form produced by Node.Path.
func ParsePath(p string) (GraphPath, error) {
	rest, ok := strings.CutPrefix(p, "$")
	if !ok {
		return nil, fmt.Errorf("path %q should start with '$'", p)
	}
	var res GraphPath
	for rest != "" {
		switch rest[0] {
		case '.':
			f, n, err := scanField(rest[1:])
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", p, err)
			}
			res = append(res, Step{Field: f})
			rest = rest[1+n:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("path %q: unterminated index", p)
			}
			i, err := strconv.ParseUint(rest[1:end], 10, 31)
			if err != nil {
				return nil, fmt.Errorf("path %q: bad index: %w", p, err)
			}
			res = append(res, Step{Index: int(i), IsIndex: true})
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("path %q: expected '.' or '[' at %q", p, rest)
		}
	}
	return res, nil
}

// scanField reads a plain or quoted field from the start of s and
// returns it with the number of bytes consumed.
func scanField(s string) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("missing field")
	}
	if s[0] != '\'' {
		n := strings.IndexAny(s, ".[")
		if n == -1 {
			n = len(s)
		}
		if n == 0 {
			return "", 0, fmt.Errorf("empty field")
		}
		return s[:n], n, nil
	}
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			i++
			if i == len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			sb.WriteByte(s[i])
		case '\'':
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted field")
}

// GetPath returns the node at path p below y, or nil if a field on the
// way is absent.
func (y *Node) GetPath(p string) (*Node, error) {
	gp, err := ParsePath(p)
	if err != nil {
		return nil, err
	}
	cur := y
	for _, s := range gp {
		if s.IsIndex {
			if cur.Type != ArrayType && cur.Type != InlineArrayType {
				return nil, fmt.Errorf("%s is a %s, not a sequence", cur.Path(), cur.Type)
			}
			if s.Index >= len(cur.Values) {
				return nil, fmt.Errorf("%s: index %d out of range (len %d)", cur.Path(), s.Index, len(cur.Values))
			}
			cur = cur.Values[s.Index]
			continue
		}
		if cur.Type != ObjectType {
			return nil, fmt.Errorf("%s is a %s, not a record", cur.Path(), cur.Type)
		}
		if cur = Get(cur, s.Field); cur == nil {
			return nil, nil
		}
	}
	return cur, nil
}
