// Package ir provides the value model used for the structural part of a
// stored object graph.
//
// # Overview
//
// A snapshot of a live object graph is a tree of ir.Node values. The IR
// is a recursive tagged union: the Type field selects which of the other
// fields carry the value.
//
//   - NullType, BoolType, NumberType, StringType: primitives
//   - ArrayType: an ordered sequence of nodes
//   - ObjectType: a record, an ordered mapping of string keys to nodes,
//     annotated with a type tag
//   - ExternType: a reference to a buffer held in a blob store
//   - InlineArrayType: a small numeric buffer stored in place as nested
//     sequences, with its dtype and shape
//
// # Type tags
//
// A record's Tag is the fully qualified name of the type it was produced
// from. It is only a hint for reconstruction; consumers must cope with
// tags that are unknown or stale.
//
// # Text encoding
//
// Encode and Decode convert between the IR and JSON:
//
//	{"field": 1, "other": [1, 2], "__class__": "example.com/pkg.Type"}
//	{"__class__": "__extern__", "path": "a3"}
//	{"__class__": "github.com/signadot/graphstore/array.Dense", "dtype": "float32", "shape": [2], "data": [1.0, 2.5]}
//
// Record keys keep their order. Floats are always written with a decimal
// point or exponent so that they decode as floats; non-finite floats are
// written as {"__class__": "float", "repr": "nan"}.
//
// # Paths
//
// Locations in a tree are written as "$" followed by ".field" and "[index]"
// steps, e.g. "$.items[2].name". Fields containing special characters are
// single quoted.
package ir
