package rohc

import "testing"

// TestFieldCovers exercises P5 (spec.md 8): for every (k, p) window
// this package names, the value actually sent must fall inside the
// interpretation interval the decompressor would reconstruct.
func TestFieldCovers(t *testing.T) {
	cases := []struct {
		name      string
		field     Field
		ref       uint32
		value     uint32
		wantCover bool
	}{
		{"exact match", fieldSeq16p32767, 1000, 1000, true},
		{"within window ahead", fieldSeq16p32767, 1000, 1000 + 30000, true},
		{"within window behind", fieldSeq16p32767, 100000, 100000 - 32767, true},
		{"just outside behind", fieldSeq16p32767, 100000, 100000 - 32768, false},
		{"small window covers small delta", fieldIPID4p3, 10, 10, true},
		{"small window rejects large delta", fieldIPID4p3, 10, 10 + 200, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.field.Covers(c.ref, c.value)
			if got != c.wantCover {
				t.Errorf("Covers(ref=%d, value=%d) = %v, want %v", c.ref, c.value, got, c.wantCover)
			}
		})
	}
}

func TestLSB(t *testing.T) {
	cases := []struct {
		k     uint8
		value uint32
		want  uint32
	}{
		{4, 0xABCD, 0xD},
		{8, 0x1FF, 0xFF},
		{16, 0x1FFFF, 0xFFFF},
		{0, 0x1234, 0},
	}
	for _, c := range cases {
		if got := LSB(c.k, c.value); got != c.want {
			t.Errorf("LSB(%d, %#x) = %#x, want %#x", c.k, c.value, got, c.want)
		}
	}
}

func TestIPIDOffsetSequentialSwapped(t *testing.T) {
	msn := uint16(5)
	ipID := uint16(0x0105) // swapped: 0x0501 = 1281
	got := ipIDOffset(IPIDSequentialSwapped, ipID, msn)
	want := swap16(ipID) - msn
	if got != want {
		t.Errorf("ipIDOffset(swapped) = %d, want %d", got, want)
	}
}

func TestVariableLength32(t *testing.T) {
	cases := []struct {
		name           string
		value          uint32
		sameAsPrevious bool
		want           []byte
	}{
		{"same as previous, nonzero value", 12345, true, []byte{0x00}},
		{"zero value", 0, false, []byte{0x40, 0x00}},
		{"one byte", 0xAB, false, []byte{0x40, 0xAB}},
		{"two bytes", 0xBEEF, false, []byte{0x80, 0xBE, 0xEF}},
		{"four bytes", 0xDEADBEEF, false, []byte{0xC0, 0xDE, 0xAD, 0xBE, 0xEF}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := VariableLength32(c.value, c.sameAsPrevious)
			if !bytesEqual(got, c.want) {
				t.Errorf("VariableLength32(%#x, %v) = % x, want % x", c.value, c.sameAsPrevious, got, c.want)
			}
		})
	}
}

func TestTSLsbShortestEncoding(t *testing.T) {
	cases := []struct {
		name   string
		ref    uint32
		ts     uint32
		wantLn int
	}{
		{"tiny delta fits 1 byte", 1000, 1010, 1},
		{"medium delta fits 2 bytes", 1000, 1000 + 5000, 2},
		{"large delta fits 3 bytes", 1000, 1000 + 1_000_000, 3},
		{"huge delta needs 4 bytes", 0, 0xFFFFFFFF, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := TSLsb(c.ref, c.ts)
			if len(got) != c.wantLn {
				t.Errorf("TSLsb(%d, %d) length = %d, want %d", c.ref, c.ts, len(got), c.wantLn)
			}
		})
	}
}

func TestSackPureLSBSmallDelta(t *testing.T) {
	base := uint32(1000)
	value := base + 100
	got := SackPureLSB(base, value)
	if len(got) != 2 {
		t.Fatalf("SackPureLSB small delta: got %d bytes, want 2", len(got))
	}
	if got[0]&0x80 != 0 {
		t.Errorf("SackPureLSB small delta: discriminator bit set, want 0")
	}
}
