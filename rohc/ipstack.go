package rohc

// This file is the IP chain walker (C2): it iterates the context's
// outer-to-inner header stack three ways — static, dynamic, and
// irregular — against the headers of the current packet. All three
// walks assume len(pkt.IPStack) == len(ctx.IPStack); a mismatch means
// a tunneled header appeared or disappeared mid-flow, which the
// classifier (compress.go) turns into a forced IR before any walker
// is invoked.

// BuildStaticChain emits the fixed identifying fields of every header
// in the stack, outer first. Used by IR only.
func BuildStaticChain(pkt *ParsedPacket) []byte {
	var out []byte
	for i := range pkt.IPStack {
		out = append(out, buildStaticIPPart(&pkt.IPStack[i])...)
	}
	return out
}

func buildStaticIPPart(h *IPHeader) []byte {
	if h.Version == IPv4 {
		out := []byte{4, h.Protocol}
		out = append(out, h.SrcAddrV4[:]...)
		out = append(out, h.DstAddrV4[:]...)
		return out
	}
	// IPv6: static1 (flow_label==0) is shorter than static2.
	if h.FlowLabel == 0 {
		out := []byte{6, 0, h.NextHeader}
		out = append(out, h.SrcAddrV6[:]...)
		out = append(out, h.DstAddrV6[:]...)
		return appendIPv6ExtStatic(out, h.Extensions)
	}
	out := []byte{6, 1, h.NextHeader}
	fl := h.FlowLabel & 0xFFFFF
	out = append(out, byte(fl>>16), byte(fl>>8), byte(fl))
	out = append(out, h.SrcAddrV6[:]...)
	out = append(out, h.DstAddrV6[:]...)
	return appendIPv6ExtStatic(out, h.Extensions)
}

// BuildDynamicChain emits the slowly-varying fields of every header in
// the stack, outer first. An outer IPv4 header only ever reports
// {random, zero} here (see DESIGN.md's Open Question resolution): the
// reported behavior is derived per packet from the observed IP-ID, and
// the behavior recorded in the context is left unchanged.
func BuildDynamicChain(ctx *Context, pkt *ParsedPacket) []byte {
	var out []byte
	for i := range pkt.IPStack {
		out = append(out, buildDynamicIPPart(ctx, &ctx.IPStack[i], &pkt.IPStack[i])...)
	}
	return out
}

func buildDynamicIPPart(ctx *Context, cctx *IPHeaderContext, h *IPHeader) []byte {
	if h.Version == IPv4 {
		return buildDynamicIPv4(cctx.V4, h, cctx.IsInnermost, ctx.MSN)
	}
	return buildDynamicIPv6(cctx.V6, h)
}

func buildDynamicIPv4(v4 *IPv4Context, h *IPHeader, isInnermost bool, msn uint16) []byte {
	behavior := v4.IPIDBehavior
	if !isInnermost {
		// Outer headers only ever carry {random, zero} in the
		// dynamic chain; an observed IP-ID of zero reports zero,
		// anything else reports random. Only the emitted value is
		// adjusted, not v4.IPIDBehavior.
		if h.IPID == 0 {
			behavior = IPIDZero
		} else if behavior != IPIDZero {
			behavior = IPIDRandom
		}
	}
	b0 := (h.DSCP << 2) | h.ECN
	b1 := h.TTL
	var flags uint8
	if h.DF {
		flags |= 0x01
	}
	flags |= behaviorCode(behavior) << 1
	out := []byte{b0, b1, flags}
	if behavior != IPIDZero {
		out = append(out, byte(h.IPID>>8), byte(h.IPID))
	}
	return out
}

func buildDynamicIPv6(v6 *IPv6Context, h *IPHeader) []byte {
	b0 := (h.DSCP << 2) | h.ECN
	out := []byte{b0, h.TTL}
	return appendIPv6ExtDynamic(out, h.Extensions)
}

func behaviorCode(b IPIDBehavior) uint8 {
	switch b {
	case IPIDZero:
		return 0
	case IPIDSequential:
		return 1
	case IPIDSequentialSwapped:
		return 2
	default:
		return 3 // random, and the unknown/first-packet transient
	}
}

// BuildIrregularChain emits only what the base header cannot recover,
// outer first, per spec 4.2's per-kind rules. ecn_used is a TCP-level
// flag (TCPContext.ECNUsed), not per-IP-header, so it is threaded down
// from ctx rather than guessed per header.
func BuildIrregularChain(ctx *Context, pkt *ParsedPacket) []byte {
	var out []byte
	for i := range pkt.IPStack {
		out = append(out, buildIrregularIPPart(&ctx.IPStack[i], &pkt.IPStack[i], ctx.TCP.ECNUsed)...)
	}
	return out
}

func buildIrregularIPPart(cctx *IPHeaderContext, h *IPHeader, ecnUsed bool) []byte {
	if h.Version == IPv4 {
		return buildIrregularIPv4(cctx, h, ecnUsed)
	}
	return buildIrregularIPv6(cctx, h, ecnUsed)
}

func buildIrregularIPv4(cctx *IPHeaderContext, h *IPHeader, ecnUsed bool) []byte {
	v4 := cctx.V4
	if cctx.IsInnermost {
		if v4.IPIDBehavior == IPIDRandom {
			return []byte{byte(h.IPID >> 8), byte(h.IPID)}
		}
		return nil
	}
	return appendOuterIrregular(nil, v4.TTLIrregularPending, h.DSCP, h.ECN, h.TTL, ecnUsed)
}

func buildIrregularIPv6(cctx *IPHeaderContext, h *IPHeader, ecnUsed bool) []byte {
	v6 := cctx.V6
	if cctx.IsInnermost {
		return appendIPv6ExtIrregular(nil, v6.Extensions, h.Extensions)
	}
	out := appendOuterIrregular(nil, v6.TTLIrregularPending, h.DSCP, h.ECN, h.TTL, ecnUsed)
	return appendIPv6ExtIrregular(out, v6.Extensions, h.Extensions)
}

// appendOuterIrregular implements "emit (DSCP<<2|ECN) iff ecn_used is
// set in context; emit TTL iff the ttl_irregular_chain_flag is set".
func appendOuterIrregular(out []byte, ttlChanged bool, dscp, ecn, ttl uint8, ecnUsed bool) []byte {
	if ecnUsed {
		out = append(out, (dscp<<2)|ecn)
	}
	if ttlChanged {
		out = append(out, ttl)
	}
	return out
}
