package rohc

// classifyPacket is C4: it picks one of the ~20 compressed formats by
// comparing the current TCP/IP headers against the context. It never
// fails: co_common is the fallback of last resort within the CO
// family (spec 7's "classifier overflow" policy).
//
// structuralListForced is true when a TCP option other than
// Timestamp/SACK needs to be introduced or changed (a new MSS/WS, or
// any unknown-kind option) — a structural event that only the formats
// carrying an explicit "opts"/"list" field (seq_8, rnd_8, co_common)
// can represent. Timestamp and SACK value updates, by contrast, ride
// along as an always-present TCP-options irregular tail regardless of
// which base format is chosen (see DESIGN.md's resolution of the
// option-list-vs-format-family tension spec.md's end-to-end scenario 1
// implies).
func classifyPacket(ctx *Context, pkt *ParsedPacket, structuralListForced bool) FormatID {
	innermost := pkt.Innermost()
	old := &ctx.TCP.OldTCPHeader
	cur := &pkt.TCP
	innerCtx := innermostCtx(ctx)

	if forceCoCommon(ctx, pkt, innermost, innerCtx, old, cur) {
		return FormatCoCommon
	}

	behavior := IPIDRandom
	if innerCtx.V4 != nil {
		behavior = innerCtx.V4.IPIDBehavior
	}

	var family []FormatID
	switch behavior {
	case IPIDSequential, IPIDSequentialSwapped:
		family = []FormatID{FormatSeq1, FormatSeq2, FormatSeq3, FormatSeq4, FormatSeq5, FormatSeq6, FormatSeq7}
	default:
		family = []FormatID{FormatRnd1, FormatRnd2, FormatRnd3, FormatRnd4, FormatRnd5, FormatRnd6, FormatRnd7}
	}

	if structuralListForced {
		f := FormatRnd8
		if behavior == IPIDSequential || behavior == IPIDSequentialSwapped {
			f = FormatSeq8
		}
		if structuralListCovers(f, ctx, innermost, innerCtx, cur) {
			return f
		}
		return FormatCoCommon
	}

	for _, cand := range family {
		if formatCovers(cand, ctx, pkt, innermost, innerCtx, old, cur) {
			return cand
		}
	}
	return FormatCoCommon
}

func innermostCtx(ctx *Context) *IPHeaderContext {
	return &ctx.IPStack[len(ctx.IPStack)-1]
}

// forceCoCommon implements the "Priority of co_common" bullet list of
// spec 4.4.
func forceCoCommon(ctx *Context, pkt *ParsedPacket, innermost *IPHeader, innerCtx *IPHeaderContext, old, cur *TCPHeader) bool {
	if old.hasFlag(FlagACK) != cur.hasFlag(FlagACK) {
		return true
	}
	if old.hasFlag(FlagURG) != cur.hasFlag(FlagURG) {
		return true
	}
	if cur.hasFlag(FlagURG) {
		return true
	}
	if innermost.Version == IPv4 && innerCtx.V4 != nil && innerCtx.V4.LastIPIDBehavior != innerCtx.V4.IPIDBehavior {
		return true
	}
	if innermost.Version == IPv4 && innerCtx.V4 != nil && innermost.DF != innerCtx.V4.DF {
		return true
	}
	if old.hasFlag(FlagECE) != cur.hasFlag(FlagECE) || old.hasFlag(FlagCWR) != cur.hasFlag(FlagCWR) {
		return true
	}
	if ctx.TCP.TTLIrregularChainFlag {
		return true
	}
	if highWordChanged(ctx.TCP.SeqNumber, cur.SeqNumber) || highWordChanged(ctx.TCP.AckNumber, cur.AckNumber) {
		return true
	}
	return false
}

func highWordChanged(ref, value uint32) bool {
	return (ref >> 16) != (value >> 16)
}

// ipIDDeltaCovers checks whether the ip_id_lsb offset for the current
// packet falls inside field's window around a zero reference (the
// offset itself, not ip_id, is what ip_id_lsb actually encodes).
// IPv6 innermost headers carry no IP-ID field at all and trivially
// cover.
func ipIDDeltaCovers(field Field, ctx *Context, innermost *IPHeader, innerCtx *IPHeaderContext) bool {
	if innerCtx.V4 == nil {
		return true
	}
	behavior := innerCtx.V4.IPIDBehavior
	offset := uint32(ipIDOffset(behavior, innermost.IPID, ctx.MSN))
	return field.Covers(0, offset)
}

// innermostTTL returns the context's last-committed TTL for the
// innermost IP header, v4 or v6.
func innermostTTL(innerCtx *IPHeaderContext) uint8 {
	if innerCtx.V4 != nil {
		return innerCtx.V4.TTL
	}
	return innerCtx.V6.TTL
}

// structuralListCovers gates seq_8/rnd_8 on the actual fields their
// base header carries (builder.go's BuildBaseHeader): seq_8 folds seq
// into 14 bits and ack into 15, rnd_8 folds both into a full 16 bits,
// and both carry a 3-bit TTL delta. forceCoCommon only rejects
// high-16-bit seq/ack changes, so a low-word delta that overflows
// these narrower windows still needs its own recheck; a miss falls
// back to co_common.
func structuralListCovers(f FormatID, ctx *Context, innermost *IPHeader, innerCtx *IPHeaderContext, cur *TCPHeader) bool {
	seqField, ackField := fieldSeq16full, fieldAck16full
	if f == FormatSeq8 {
		seqField, ackField = fieldSeq14p8191, fieldAck15p8191
	}
	checks := []deltaCheck{
		{seqField, ctx.TCP.SeqNumber, cur.SeqNumber},
		{ackField, ctx.TCP.AckNumber, cur.AckNumber},
		{fieldTTL3p3, uint32(innermostTTL(innerCtx)), uint32(innermost.TTL)},
	}
	for _, c := range checks {
		if !c.ok() {
			return false
		}
	}
	if f == FormatSeq8 {
		return ipIDDeltaCovers(fieldIPID4p3, ctx, innermost, innerCtx)
	}
	return true
}

// formatCovers re-derives the deltas each candidate format needs and
// checks that every field's LSB window actually reaches them, per
// spec 4.4's mandatory recheck.
func formatCovers(f FormatID, ctx *Context, pkt *ParsedPacket, innermost *IPHeader, innerCtx *IPHeaderContext, old, cur *TCPHeader) bool {
	ipIDDelta := func(field Field) bool {
		return ipIDDeltaCovers(field, ctx, innermost, innerCtx)
	}
	hasPayload := pkt.PayloadSize > 0
	ackUnchanged := cur.AckNumber == ctx.TCP.AckNumber
	seqUnchanged := cur.SeqNumber == ctx.TCP.SeqNumber
	windowChanged := cur.WindowSize != old.WindowSize
	strideActive := ctx.TCP.AckStride != 0

	switch f {
	case FormatSeq1, FormatRnd1:
		fld := fieldIPID4p3
		return seqMatches(fld, ctx, cur) && ackUnchanged && ipIDOrSkip(f, fld, ipIDDelta)
	case FormatSeq2, FormatRnd2:
		if !hasPayload || !strideActive {
			return false
		}
		newScaled, _ := scaleField(cur.SeqNumber, uint32(pkt.PayloadSize))
		return fieldSeqScaled4p7.Covers(ctx.TCP.SeqScaled, newScaled) && ipIDOrSkip(f, fieldIPID7p3, ipIDDelta)
	case FormatSeq3, FormatRnd3:
		return fieldAck16p16383.Covers(ctx.TCP.AckNumber, cur.AckNumber) && seqUnchanged && ipIDOrSkip(f, fieldIPID4p3, ipIDDelta)
	case FormatSeq4, FormatRnd4:
		if !hasPayload || !strideActive {
			return false
		}
		newAckScaled, _ := scaleField(cur.AckNumber, uint32(ctx.TCP.AckStride))
		return fieldAckScaled4p3.Covers(ctx.TCP.AckScaled, newAckScaled) && ipIDOrSkip(f, fieldIPID3p1, ipIDDelta)
	case FormatSeq5, FormatRnd5:
		return fieldAck16p16383.Covers(ctx.TCP.AckNumber, cur.AckNumber) &&
			fieldSeq16p32767.Covers(ctx.TCP.SeqNumber, cur.SeqNumber) && ipIDOrSkip(f, fieldIPID4p3, ipIDDelta)
	case FormatSeq6, FormatRnd6:
		if !hasPayload || !strideActive {
			return false
		}
		return fieldAck16p16383.Covers(ctx.TCP.AckNumber, cur.AckNumber) && ipIDOrSkip(f, fieldIPID7p3, ipIDDelta)
	case FormatSeq7, FormatRnd7:
		if !windowChanged {
			return false
		}
		return fieldWindow15p16383.Covers(uint32(old.WindowSize), uint32(cur.WindowSize)) &&
			fieldAck16p32767.Covers(ctx.TCP.AckNumber, cur.AckNumber) && ipIDOrSkip(f, fieldIPID5p3, ipIDDelta)
	default:
		return false
	}
}

// ipIDOrSkip applies the IP-ID delta check only for seq_* formats
// (which carry an ip_id field); rnd_* formats have no such field and
// trivially satisfy this check.
func ipIDOrSkip(f FormatID, field Field, delta func(Field) bool) bool {
	switch f {
	case FormatSeq1, FormatSeq2, FormatSeq3, FormatSeq4, FormatSeq5, FormatSeq6, FormatSeq7, FormatSeq8:
		return delta(field)
	default:
		return true
	}
}

func seqMatches(ipIDField Field, ctx *Context, cur *TCPHeader) bool {
	return fieldSeq16p32767.Covers(ctx.TCP.SeqNumber, cur.SeqNumber)
}
