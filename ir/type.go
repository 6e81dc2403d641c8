package ir

type Type int

const (
	NullType Type = iota
	NumberType
	StringType
	BoolType
	ObjectType
	ArrayType
	ExternType
	InlineArrayType
)

func (t Type) String() string {
	s, ok := map[Type]string{
		ObjectType:      "Record",
		ArrayType:       "Sequence",
		StringType:      "Str",
		NumberType:      "Number",
		BoolType:        "Bool",
		NullType:        "Null",
		ExternType:      "ExternalArrayRef",
		InlineArrayType: "InlineArray",
	}[t]
	if ok {
		return s
	}
	return "<unknown type>"
}

// IsLeaf reports whether nodes of type t carry no child values.
// Inline arrays hold their data as children and so are not leaves.
func (t Type) IsLeaf() bool {
	switch t {
	case ObjectType, ArrayType, InlineArrayType:
		return false
	default:
		return true
	}
}
