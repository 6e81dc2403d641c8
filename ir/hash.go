package ir

import (
	"encoding/binary"
	"hash/maphash"
	"math"
)

var hashSeed = maphash.MakeSeed()

// Hash returns a 64-bit hash of the node. Hashes are only comparable
// within one process.
// It panics if n is nil.
func (n *Node) Hash() uint64 {
	if n == nil {
		panic("ir: Hash called on nil node")
	}

	var h maphash.Hash
	h.SetSeed(hashSeed)
	var b [8]byte
	word := func(u uint64) {
		binary.LittleEndian.PutUint64(b[:], u)
		h.Write(b[:])
	}

	h.WriteByte(byte(n.Type))
	h.WriteString(n.Tag)

	switch n.Type {
	case NullType:
	case BoolType:
		if n.Bool {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case NumberType:
		if n.Int64 != nil {
			h.WriteByte(0)
			word(uint64(*n.Int64))
		} else if n.Uint64 != nil {
			h.WriteByte(2)
			word(*n.Uint64)
		} else if n.Float64 != nil {
			h.WriteByte(1)
			word(math.Float64bits(*n.Float64))
		}
	case StringType, ExternType:
		h.WriteString(n.String)
	case ArrayType:
		for _, v := range n.Values {
			word(v.Hash())
		}
	case ObjectType:
		for i, field := range n.Fields {
			h.WriteString(field)
			h.WriteByte(0)
			word(n.Values[i].Hash())
		}
	case InlineArrayType:
		h.WriteString(n.DType)
		word(uint64(len(n.Shape)))
		for _, d := range n.Shape {
			word(uint64(d))
		}
		for _, v := range n.Values {
			word(v.Hash())
		}
	}
	return h.Sum64()
}
