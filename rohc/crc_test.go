package rohc

import "testing"

// TestCRCWidths checks P2 (spec.md 8): every CRC function returns a
// value that fits in its declared width, for both all-zero and varied
// inputs.
func TestCRCWidths(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		{0xFF, 0xFF, 0xFF},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
	}
	for _, in := range inputs {
		if got := ComputeCRC3(in); got > 0x07 {
			t.Errorf("ComputeCRC3(% x) = %#x, exceeds 3 bits", in, got)
		}
		if got := ComputeCRC7(in); got > 0x7F {
			t.Errorf("ComputeCRC7(% x) = %#x, exceeds 7 bits", in, got)
		}
		// ComputeCRC8 has no narrower ceiling to check beyond uint8's own range.
		_ = ComputeCRC8(in)
	}
}

// TestCRCDeterministic checks that the same input always produces the
// same CRC and that a single flipped bit changes it (a CRC that never
// changes under mutation would fail to catch corruption, defeating its
// purpose in the decompressor).
func TestCRCDeterministic(t *testing.T) {
	a := []byte{0x10, 0x20, 0x30, 0x40}
	b := []byte{0x10, 0x20, 0x30, 0x41}

	if ComputeCRC3(a) != ComputeCRC3(a) {
		t.Fatal("ComputeCRC3 not deterministic")
	}
	if ComputeCRC3(a) == ComputeCRC3(b) {
		t.Error("ComputeCRC3(a) == ComputeCRC3(b) for differing inputs, want different checksums")
	}
	if ComputeCRC7(a) == ComputeCRC7(b) {
		t.Error("ComputeCRC7(a) == ComputeCRC7(b) for differing inputs, want different checksums")
	}
	if ComputeCRC8(a) == ComputeCRC8(b) {
		t.Error("ComputeCRC8(a) == ComputeCRC8(b) for differing inputs, want different checksums")
	}
}
