package blob

import (
	"fmt"
	"math/bits"
	"strconv"
)

// FormatID returns the id for counter value n.
//
// Format: length-prefixed hexadecimal. The prefix letter gives the number
// of hex digits ('a'=1, 'b'=2, ..., 'p'=16), so ids sort lexicographically
// in counter order.
//
// Examples:
//   - 0    → "a0"
//   - 15   → "af"
//   - 16   → "b10"
//   - 4096 → "d1000"
func FormatID(n int64) string {
	if n < 0 {
		panic("blob: negative id counter")
	}
	length := hexDigits(uint64(n))
	prefix := byte('a' + length - 1)
	return string(prefix) + strconv.FormatInt(n, 16)
}

// ParseID returns the counter value encoded in id.
func ParseID(id string) (int64, error) {
	if len(id) < 2 {
		return 0, fmt.Errorf("blob id %q too short", id)
	}
	want := int(id[0]-'a') + 1
	if id[0] < 'a' || id[0] > 'p' || want != len(id)-1 {
		return 0, fmt.Errorf("invalid blob id %q", id)
	}
	u, err := strconv.ParseUint(id[1:], 16, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid blob id %q: %w", id, err)
	}
	if FormatID(int64(u)) != id {
		return 0, fmt.Errorf("non canonical blob id %q", id)
	}
	return int64(u), nil
}

// hexDigits returns the number of hex digits needed to represent n.
func hexDigits(n uint64) int {
	if n == 0 {
		return 1
	}
	return (bits.Len64(n) + 3) / 4
}
