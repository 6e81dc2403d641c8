package blob

import (
	"testing"
)

func TestFormatID(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "a0"},
		{1, "a1"},
		{15, "af"},          // 0xf
		{16, "b10"},         // 0x10
		{255, "bff"},        // 0xff
		{256, "c100"},       // 0x100
		{1000000, "ef4240"}, // 5 hex digits
	}
	var prev string
	for _, tt := range tests {
		id := FormatID(tt.n)
		if id != tt.want {
			t.Errorf("FormatID(%d) = %q, want %q", tt.n, id, tt.want)
		}
		if prev != "" && id <= prev {
			t.Errorf("ids not monotonic: %q <= %q", id, prev)
		}
		prev = id
	}
}

func TestFormatIDMonotonicity(t *testing.T) {
	prev := FormatID(0)
	for n := int64(1); n < 5000; n++ {
		id := FormatID(n)
		if id <= prev {
			t.Fatalf("ids not monotonic at %d: %q <= %q", n, id, prev)
		}
		prev = id
	}
}

func TestParseID(t *testing.T) {
	for _, n := range []int64{0, 9, 10, 4095, 4096, 1 << 40} {
		got, err := ParseID(FormatID(n))
		if err != nil {
			t.Fatalf("ParseID(FormatID(%d)) error = %v", n, err)
		}
		if got != n {
			t.Errorf("ParseID(FormatID(%d)) = %d", n, got)
		}
	}
	for _, bad := range []string{"", "a", "b1", "a00", "b01", "q0", "az", "A0", "c1000"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) expected error", bad)
		}
	}
}
