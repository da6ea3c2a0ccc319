package rohc

import "testing"

// fixedRand hands back a constant draw so MSN seeding is reproducible
// across a test run.
type fixedRand struct{ v uint32 }

func (r fixedRand) Uint32() uint32 { return r.v }

// buildTestPacket constructs a single-IPv4, no-options TCP/IP packet
// directly as struct literals, bypassing ParsePacket's gopacket-based
// decode (P4/P5/P6 and the worked scenarios in spec.md 8 only need
// the parsed shape, not wire bytes in).
func buildTestPacket(seq, ack uint32, ipid uint16, window uint16, payload int) *ParsedPacket {
	return &ParsedPacket{
		raw: make([]byte, 40+payload), // 20B IPv4 + 20B TCP (no options) + payload
		IPStack: []IPHeader{{
			Version:     IPv4,
			IsInnermost: true,
			SrcAddrV4:   [4]byte{10, 0, 0, 1},
			DstAddrV4:   [4]byte{10, 0, 0, 2},
			Protocol:    6,
			DF:          true,
			TTL:         64,
			IPID:        ipid,
			HeaderLen5:  true,
		}},
		TCP: TCPHeader{
			SrcPort:    4000,
			DstPort:    22,
			SeqNumber:  seq,
			AckNumber:  ack,
			DataOffset: 5,
			Flags:      FlagACK,
			WindowSize: window,
		},
		PayloadSize: payload,
	}
}

// TestCompressIRThenIRDynThenCO walks the IR -> FO -> SO state machine
// (spec.md 7) and checks the format chosen at each step, covering P4's
// "every Compress call advances the state machine by exactly one step
// until SO" and the worked scenario of a flow settling onto seq_1 once
// its IP-ID behavior has stabilized across two consecutive commits.
func TestCompressIRThenIRDynThenCO(t *testing.T) {
	rnd := fixedRand{v: 5} // seeds MSN = 5, chosen so ip_id - msn stays small and constant
	dest := make([]byte, 256)

	pkt1 := buildTestPacket(1000, 500, 10, 1000, 50)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())
	if ctx.State != StateIR {
		t.Fatalf("new context state = %v, want StateIR", ctx.State)
	}

	res1, err := Compress(ctx, pkt1, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt1 Compress error: %v", err)
	}
	if res1.PacketType != FormatIR {
		t.Fatalf("pkt1 format = %v, want IR", res1.PacketType)
	}
	if res1.Bytes[0] != 0xFD {
		t.Errorf("pkt1 first byte = %#x, want 0xFD", res1.Bytes[0])
	}
	if ctx.State != StateFO {
		t.Fatalf("state after pkt1 = %v, want StateFO", ctx.State)
	}
	if ctx.MSN != 6 {
		t.Errorf("MSN after pkt1 = %d, want 6", ctx.MSN)
	}

	pkt2 := buildTestPacket(1050, 500, 11, 1000, 50)
	res2, err := Compress(ctx, pkt2, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt2 Compress error: %v", err)
	}
	if res2.PacketType != FormatIRDYN {
		t.Fatalf("pkt2 format = %v, want IR-DYN", res2.PacketType)
	}
	if res2.Bytes[0] != 0xF8 {
		t.Errorf("pkt2 first byte = %#x, want 0xF8", res2.Bytes[0])
	}
	if ctx.State != StateSO {
		t.Fatalf("state after pkt2 = %v, want StateSO", ctx.State)
	}

	innerCtx := innermostCtx(ctx)
	if innerCtx.V4.IPIDBehavior != IPIDSequential {
		t.Fatalf("IP-ID behavior after pkt2 = %v, want sequential", innerCtx.V4.IPIDBehavior)
	}
	if innerCtx.V4.LastIPIDBehavior == innerCtx.V4.IPIDBehavior {
		t.Fatal("behavior should have just changed on pkt2's commit, forcing co_common on pkt3")
	}

	// pkt3: the behavior just changed (random -> sequential on pkt2's
	// commit), so spec 4.4's priority list forces co_common regardless
	// of the CO family's own coverage.
	pkt3 := buildTestPacket(1100, 500, 12, 1000, 50)
	res3, err := Compress(ctx, pkt3, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt3 Compress error: %v", err)
	}
	if res3.PacketType != FormatCoCommon {
		t.Fatalf("pkt3 format = %v, want co_common (forced by behavior change)", res3.PacketType)
	}

	// pkt4: behavior has now been stable (sequential -> sequential)
	// across the most recent commit, ack is unchanged, seq stays within
	// the 16-bit window, and ip_id-msn offset stays at a constant 5 -
	// seq_1 should cover it without falling back to co_common.
	pkt4 := buildTestPacket(1150, 500, 13, 1000, 50)
	res4, err := Compress(ctx, pkt4, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt4 Compress error: %v", err)
	}
	if res4.PacketType != FormatSeq1 {
		t.Fatalf("pkt4 format = %v, want seq_1", res4.PacketType)
	}
}

// TestCompressPayloadOffsetIsSourceHeaderLen checks that PayloadOffset
// points into the source packet (total IP+TCP header length), not into
// the compressed output, so a caller's frame[result.PayloadOffset:]
// splice actually lands on the payload.
func TestCompressPayloadOffsetIsSourceHeaderLen(t *testing.T) {
	rnd := fixedRand{v: 5}
	dest := make([]byte, 256)

	pkt := buildTestPacket(1000, 500, 10, 1000, 50)
	ctx := NewContext(pkt, rnd, DefaultEngineConfig())
	res, err := Compress(ctx, pkt, dest, rnd, nil)
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if want := len(pkt.raw) - pkt.PayloadSize; res.PayloadOffset != want {
		t.Errorf("PayloadOffset = %d, want %d (source header length)", res.PayloadOffset, want)
	}
}

// TestCompressSettlesOnSeqScaled drives a flow to seq_2: a constant
// ack_stride (so seq_1's no-ack-field shortcut no longer applies, since
// ack keeps moving) plus a seq number that advances by exactly one
// payload size per packet (so seq_scaled's residue stays put). Covers
// spec.md 8's scenario 1 and the seq_scaled/seq_residue commit this
// format depends on.
func TestCompressSettlesOnSeqScaled(t *testing.T) {
	rnd := fixedRand{v: 5}
	dest := make([]byte, 256)

	pkt1 := buildTestPacket(1000, 500, 10, 1000, 1000)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())
	if _, err := Compress(ctx, pkt1, dest, rnd, nil); err != nil {
		t.Fatalf("pkt1 Compress error: %v", err)
	}

	pkt2 := buildTestPacket(2000, 600, 11, 1000, 1000)
	res2, err := Compress(ctx, pkt2, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt2 Compress error: %v", err)
	}
	if res2.PacketType != FormatIRDYN {
		t.Fatalf("pkt2 format = %v, want IR-DYN", res2.PacketType)
	}

	// pkt3: IP-ID behavior just settled (random -> sequential) on pkt2's
	// commit, so co_common is forced regardless of CO coverage.
	pkt3 := buildTestPacket(3000, 700, 12, 1000, 1000)
	res3, err := Compress(ctx, pkt3, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt3 Compress error: %v", err)
	}
	if res3.PacketType != FormatCoCommon {
		t.Fatalf("pkt3 format = %v, want co_common (forced by behavior change)", res3.PacketType)
	}
	if ctx.TCP.AckStride != 100 {
		t.Fatalf("AckStride after pkt3 = %d, want 100", ctx.TCP.AckStride)
	}
	if ctx.TCP.SeqScaled != 3 || ctx.TCP.SeqResidue != 0 {
		t.Fatalf("seq_scaled/seq_residue after pkt3 = %d/%d, want 3/0", ctx.TCP.SeqScaled, ctx.TCP.SeqResidue)
	}

	// pkt4: behavior is now stable, ack keeps moving by the armed
	// stride (seq_1's ackUnchanged precondition fails), and seq_scaled
	// advances by exactly one from the committed reference.
	pkt4 := buildTestPacket(4000, 800, 13, 1000, 1000)
	res4, err := Compress(ctx, pkt4, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt4 Compress error: %v", err)
	}
	if res4.PacketType != FormatSeq2 {
		t.Fatalf("pkt4 format = %v, want seq_2", res4.PacketType)
	}
}

// TestStructuralListFallsBackToCoCommonOnSeqOverflow checks the seq_8
// gating fix: a low-word seq delta that overflows seq_8's 14-bit/8191
// window must fall back to co_common, even though the delta is far too
// small to trip forceCoCommon's own high-word check.
func TestStructuralListFallsBackToCoCommonOnSeqOverflow(t *testing.T) {
	rnd := fixedRand{v: 5}
	dest := make([]byte, 256)

	pkt1 := buildTestPacket(1000, 500, 10, 1000, 0)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())
	if _, err := Compress(ctx, pkt1, dest, rnd, nil); err != nil {
		t.Fatalf("pkt1 Compress error: %v", err)
	}
	pkt2 := buildTestPacket(1050, 500, 11, 1000, 0)
	if _, err := Compress(ctx, pkt2, dest, rnd, nil); err != nil {
		t.Fatalf("pkt2 Compress error: %v", err)
	}
	pkt3 := buildTestPacket(1100, 500, 12, 1000, 0)
	if _, err := Compress(ctx, pkt3, dest, rnd, nil); err != nil {
		t.Fatalf("pkt3 Compress error: %v", err)
	}

	// pkt4 introduces a brand-new MSS option (forcing the structural
	// list path) and a seq delta (40000) that stays within the same
	// 16-bit high word yet overflows seq_8's narrower 14-bit/8191
	// window.
	pkt4 := buildTestPacket(1100+40000, 500, 13, 1000, 0)
	pkt4.TCP.Options = []TCPOption{{Kind: OptKindMSS, Value: []byte{0x05, 0xB4}}}
	res4, err := Compress(ctx, pkt4, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt4 Compress error: %v", err)
	}
	if res4.PacketType != FormatCoCommon {
		t.Fatalf("pkt4 format = %v, want co_common (seq_8 window overflow)", res4.PacketType)
	}
}

// TestCompressForcesCoCommonOnURG checks one of the unconditional
// co_common triggers of spec 4.4: a packet carrying URG always forces
// co_common, even once the flow is otherwise in steady state.
func TestCompressForcesCoCommonOnURG(t *testing.T) {
	rnd := fixedRand{v: 5}
	dest := make([]byte, 256)

	pkt1 := buildTestPacket(1000, 500, 10, 1000, 0)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())
	if _, err := Compress(ctx, pkt1, dest, rnd, nil); err != nil {
		t.Fatalf("pkt1 Compress error: %v", err)
	}
	pkt2 := buildTestPacket(1050, 500, 11, 1000, 0)
	if _, err := Compress(ctx, pkt2, dest, rnd, nil); err != nil {
		t.Fatalf("pkt2 Compress error: %v", err)
	}

	// pkt3 absorbs the IP-ID behavior change forced onto co_common, so
	// pkt4 is the first packet whose only co_common trigger is URG.
	pkt3 := buildTestPacket(1100, 500, 12, 1000, 0)
	if _, err := Compress(ctx, pkt3, dest, rnd, nil); err != nil {
		t.Fatalf("pkt3 Compress error: %v", err)
	}

	pkt4 := buildTestPacket(1150, 500, 13, 1000, 0)
	pkt4.TCP.Flags |= FlagURG
	res4, err := Compress(ctx, pkt4, dest, rnd, nil)
	if err != nil {
		t.Fatalf("pkt4 Compress error: %v", err)
	}
	if res4.PacketType != FormatCoCommon {
		t.Fatalf("URG-carrying packet format = %v, want co_common", res4.PacketType)
	}
}

// TestCheckContextPortMismatch checks I5: a packet with the same
// addresses but a different TCP port pair does not belong to the
// context.
func TestCheckContextPortMismatch(t *testing.T) {
	rnd := fixedRand{v: 1}
	pkt1 := buildTestPacket(1000, 500, 10, 1000, 0)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())

	other := buildTestPacket(1000, 500, 10, 1000, 0)
	other.TCP.DstPort = 443
	if got := CheckContext(ctx, other); got != ContextNotBelongs {
		t.Errorf("CheckContext with mismatched port = %v, want ContextNotBelongs", got)
	}

	same := buildTestPacket(2000, 9000, 99, 2000, 0)
	if got := CheckContext(ctx, same); got != ContextBelongs {
		t.Errorf("CheckContext with matching addresses/ports = %v, want ContextBelongs", got)
	}
}

// TestCheckProfileRejectsIPv4Options checks the eligibility gate
// independent of any context: a v4 header carrying options (IHL != 5)
// is never profile-eligible.
func TestCheckProfileRejectsIPv4Options(t *testing.T) {
	pkt := buildTestPacket(1000, 500, 10, 1000, 0)
	pkt.IPStack[0].HeaderLen5 = false
	if CheckProfile(pkt, true) {
		t.Error("CheckProfile should reject an IPv4 header carrying options (IHL != 5)")
	}
}

func TestCheckProfileRejectsNonTCP(t *testing.T) {
	pkt := buildTestPacket(1000, 500, 10, 1000, 0)
	if CheckProfile(pkt, false) {
		t.Error("CheckProfile should reject a non-TCP packet")
	}
}

// TestCompressBufferTooSmall checks the ErrBufferTooSmall path rather
// than growing dest itself.
func TestCompressBufferTooSmall(t *testing.T) {
	rnd := fixedRand{v: 5}
	pkt1 := buildTestPacket(1000, 500, 10, 1000, 0)
	ctx := NewContext(pkt1, rnd, DefaultEngineConfig())

	tiny := make([]byte, 1)
	if _, err := Compress(ctx, pkt1, tiny, rnd, nil); err != ErrBufferTooSmall {
		t.Errorf("Compress into a 1-byte buffer = %v, want ErrBufferTooSmall", err)
	}
}
