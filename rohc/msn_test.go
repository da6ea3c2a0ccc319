package rohc

import "testing"

// TestIncrementMSNWraps checks P3 (spec.md 8): MSN after n compressed
// packets equals (MSN_0 + n) mod 2^16, including the wraparound at
// 0xFFFF.
func TestIncrementMSNWraps(t *testing.T) {
	ctx := &Context{MSN: 0xFFFE}
	ctx.IncrementMSN()
	if ctx.MSN != 0xFFFF {
		t.Fatalf("MSN = %#x, want 0xFFFF", ctx.MSN)
	}
	ctx.IncrementMSN()
	if ctx.MSN != 0 {
		t.Fatalf("MSN after wraparound = %#x, want 0", ctx.MSN)
	}
}

// TestClassifyIPIDBehaviorSequential checks the steady-state
// transitions of the four-value enum (I3): once settled, a
// classification never falls back to unknown.
func TestClassifyIPIDBehaviorSequential(t *testing.T) {
	got := classifyIPIDBehavior(IPIDUnknown, 100, 101)
	if got != IPIDSequential {
		t.Errorf("classifyIPIDBehavior(100->101) = %v, want sequential", got)
	}
}

func TestClassifyIPIDBehaviorZero(t *testing.T) {
	got := classifyIPIDBehavior(IPIDSequential, 500, 0)
	if got != IPIDZero {
		t.Errorf("classifyIPIDBehavior(observed=0) = %v, want zero", got)
	}
}

func TestClassifyIPIDBehaviorSwapped(t *testing.T) {
	// last = 0x00FF (host order), observed byte-swapped-incremented:
	// swap16(0x00FF) = 0xFF00; next swapped value is 0xFF01, whose
	// un-swapped wire representation is 0x01FF.
	last := uint16(0x00FF)
	observed := swap16(swap16(last) + 1)
	got := classifyIPIDBehavior(IPIDSequential, last, observed)
	if got != IPIDSequentialSwapped {
		t.Errorf("classifyIPIDBehavior(swapped sequence) = %v, want sequential-swapped", got)
	}
}

func TestClassifyIPIDBehaviorRandomOnBigJump(t *testing.T) {
	got := classifyIPIDBehavior(IPIDSequential, 100, 5000)
	if got != IPIDRandom {
		t.Errorf("classifyIPIDBehavior(big jump) = %v, want random", got)
	}
}

func TestDetectAckStrideArmsOnRepeatedDelta(t *testing.T) {
	tc := &TCPContext{AckNumber: 1000}
	tc.DetectAckStride(1100) // first delta: arms stride = 100 optimistically
	if tc.AckStride != 100 {
		t.Fatalf("AckStride after first delta = %d, want 100", tc.AckStride)
	}
	tc.AckNumber = 1100
	tc.DetectAckStride(1200) // second delta matching stride: scales
	if tc.AckScaled != 1200/100 {
		t.Errorf("AckScaled = %d, want %d", tc.AckScaled, 1200/100)
	}
	if tc.AckResidue != 1200%100 {
		t.Errorf("AckResidue = %d, want %d", tc.AckResidue, 1200%100)
	}
}

func TestDetectAckStrideIgnoresZeroDelta(t *testing.T) {
	tc := &TCPContext{AckNumber: 1000, AckStride: 50}
	tc.DetectAckStride(1000)
	if tc.AckStride != 50 {
		t.Errorf("AckStride changed on zero delta: got %d, want unchanged 50", tc.AckStride)
	}
}

func TestScaleField(t *testing.T) {
	scaled, residue := scaleField(4448, 1448)
	if scaled != 3 || residue != 104 {
		t.Errorf("scaleField(4448, 1448) = %d/%d, want 3/104", scaled, residue)
	}
	if scaled, residue := scaleField(1234, 0); scaled != 0 || residue != 1234 {
		t.Errorf("scaleField(1234, 0) = %d/%d, want 0/1234 (disabled stride)", scaled, residue)
	}
}

func TestUpdateSeqChangeCount(t *testing.T) {
	tc := &TCPContext{SeqNumber: 1000}
	tc.UpdateSeqChangeCount(1000)
	if tc.SeqNumberChangeCount != 0 {
		t.Fatalf("SeqNumberChangeCount after unchanged seq = %d, want 0", tc.SeqNumberChangeCount)
	}
	tc.SeqNumber = 1000
	tc.UpdateSeqChangeCount(1001)
	if tc.SeqNumberChangeCount != 1 {
		t.Errorf("SeqNumberChangeCount after one change = %d, want 1", tc.SeqNumberChangeCount)
	}
}
