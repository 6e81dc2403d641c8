package array

import (
	"fmt"
	"math"
)

// Shape represents the dimensions of an array.
type Shape []int

// NumElements returns the total number of elements. It is only
// meaningful for shapes that pass Validate.
func (s Shape) NumElements() int {
	n := 1 // a 0-dimensional array holds one element
	for _, dim := range s {
		n *= dim
	}
	return n
}

// MaxElements bounds the element count of a shape so that the byte
// size of any array fits in an int.
const MaxElements = math.MaxInt / 8

// Validate checks that no dimension is negative and that the element
// count is at most MaxElements. Zero-length dimensions are allowed, but
// the other dimensions are still bounded.
func (s Shape) Validate() error {
	n := 1
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d", i, dim)
		}
		if dim == 0 {
			continue
		}
		if n > MaxElements/dim {
			return fmt.Errorf("shape %v has more than %d elements", []int(s), MaxElements)
		}
		n *= dim
	}
	return nil
}

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}
