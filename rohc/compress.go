package rohc

import "fmt"

// ContextMatch is the outcome of CheckContext (spec 6).
type ContextMatch int

const (
	ContextBelongs ContextMatch = iota
	ContextNotBelongs
	ContextCannotCompress
)

// CheckProfile implements spec 6's eligibility gate: TCP transport,
// each IP header v4 or v6, no fragmentation, v4 IHL == 5. It is meant
// to run before a context even exists, so it only looks at the wire
// shape, never at any per-flow state.
func CheckProfile(pkt *ParsedPacket, isTCP bool) bool {
	if !isTCP {
		return false
	}
	if len(pkt.IPStack) == 0 {
		return false
	}
	for _, h := range pkt.IPStack {
		if h.Version == IPv4 && !h.HeaderLen5 {
			return false
		}
	}
	return true
}

// CheckContext implements I5: the packet belongs to ctx iff every
// tunneled header's addresses match, IPv6 flow-label matches, and TCP
// src/dst ports match exactly.
func CheckContext(ctx *Context, pkt *ParsedPacket) ContextMatch {
	if len(pkt.IPStack) != len(ctx.IPStack) {
		return ContextCannotCompress
	}
	for i := range pkt.IPStack {
		h := &pkt.IPStack[i]
		c := &ctx.IPStack[i]
		if h.Version != c.Version {
			return ContextNotBelongs
		}
		if h.Version == IPv4 {
			if h.SrcAddrV4 != c.V4.SrcAddr || h.DstAddrV4 != c.V4.DstAddr {
				return ContextNotBelongs
			}
		} else {
			if h.SrcAddrV6 != c.V6.SrcAddr || h.DstAddrV6 != c.V6.DstAddr || h.FlowLabel != c.V6.FlowLabel {
				return ContextNotBelongs
			}
		}
	}
	if pkt.TCP.SrcPort != ctx.TCP.SrcPort || pkt.TCP.DstPort != ctx.TCP.DstPort {
		return ContextNotBelongs
	}
	return ContextBelongs
}

// Result is what Compress returns on success.
type Result struct {
	Bytes      []byte
	PacketType FormatID

	// PayloadOffset is where the payload begins in the *source*
	// packet's bytes (combined IP+TCP header length), not an offset
	// into Bytes — the caller splices pkt's raw[PayloadOffset:] onto
	// Bytes to reassemble the compressed frame.
	PayloadOffset int
}

// Compress is the engine's single entry point: given a context, the
// current packet, and a destination buffer, it classifies, builds,
// and commits, returning the compressed bytes and where the payload
// starts in the source packet's bytes.
//
// dest sizing is the caller's concern; Compress returns
// ErrBufferTooSmall rather than growing dest itself, matching the
// teacher's Marshal(buffer []byte) convention in lib/packet.go.
func Compress(ctx *Context, pkt *ParsedPacket, dest []byte, rnd RandomSource, tr Tracer) (Result, error) {
	if tr == nil {
		tr = NopTracer{}
	}
	if len(pkt.IPStack) != len(ctx.IPStack) {
		// A tunneled header appeared or disappeared: the context can
		// no longer describe this flow's shape, force IR.
		ctx.State = StateIR
		return Result{}, fmt.Errorf("rohc: ip stack shape changed: %w", ErrUnsupportedChain)
	}

	var result Result
	var err error
	switch ctx.State {
	case StateIR:
		result, err = buildIR(ctx, pkt, tr)
	case StateFO:
		result, err = buildIRDyn(ctx, pkt, tr)
	default:
		result, err = buildCO(ctx, pkt, tr)
	}
	if err != nil {
		return Result{}, err
	}

	if len(result.Bytes) > len(dest) {
		return Result{}, ErrBufferTooSmall
	}
	n := copy(dest, result.Bytes)
	result.Bytes = dest[:n]

	CommitContext(ctx, pkt)
	return result, nil
}

func buildTCPStaticPart(h *TCPHeader) []byte {
	return []byte{byte(h.SrcPort >> 8), byte(h.SrcPort), byte(h.DstPort >> 8), byte(h.DstPort)}
}

func buildTCPDynamicPart(h *TCPHeader, items []OptionListItem) []byte {
	out := []byte{
		h.Flags,
		byte(h.WindowSize >> 8), byte(h.WindowSize),
		byte(h.SeqNumber >> 24), byte(h.SeqNumber >> 16), byte(h.SeqNumber >> 8), byte(h.SeqNumber),
		byte(h.AckNumber >> 24), byte(h.AckNumber >> 16), byte(h.AckNumber >> 8), byte(h.AckNumber),
		byte(h.URGPtr >> 8), byte(h.URGPtr),
	}
	out = append(out, EncodeOptionList(items)...)
	return out
}

// buildIR lays the header out per RFC 6846 7.3: discriminator,
// profile, CRC-8, then the static and dynamic chains. The CRC covers
// the whole header with its own octet read as zero.
func buildIR(ctx *Context, pkt *ParsedPacket, tr Tracer) (Result, error) {
	items := CompressOptions(ctx, &pkt.TCP, tr)

	var rest []byte
	rest = append(rest, BuildStaticChain(pkt)...)
	rest = append(rest, BuildDynamicChain(ctx, pkt)...)
	rest = append(rest, buildTCPStaticPart(&pkt.TCP)...)
	rest = append(rest, buildTCPDynamicPart(&pkt.TCP, items)...)

	out := []byte{0xFD, tcpProfileID, 0x00}
	out = append(out, rest...)
	out[2] = ComputeCRC8(out)

	return Result{Bytes: out, PacketType: FormatIR, PayloadOffset: pkt.HeaderLen()}, nil
}

func buildIRDyn(ctx *Context, pkt *ParsedPacket, tr Tracer) (Result, error) {
	items := CompressOptions(ctx, &pkt.TCP, tr)

	var rest []byte
	rest = append(rest, BuildDynamicChain(ctx, pkt)...)
	rest = append(rest, buildTCPDynamicPart(&pkt.TCP, items)...)

	out := []byte{0xF8, tcpProfileID, 0x00}
	out = append(out, rest...)
	out[2] = ComputeCRC8(out)

	return Result{Bytes: out, PacketType: FormatIRDYN, PayloadOffset: pkt.HeaderLen()}, nil
}

func buildCO(ctx *Context, pkt *ParsedPacket, tr Tracer) (Result, error) {
	items := CompressOptions(ctx, &pkt.TCP, tr)
	structuralListForced := false
	var tsSackItems []OptionListItem
	for _, it := range items {
		kind, ok := kindForItem(ctx, it)
		if ok && (kind == OptKindTimestamp || kind == OptKindSACK) {
			if it.ValuePresent {
				tsSackItems = append(tsSackItems, it)
			}
			continue
		}
		if it.ValuePresent {
			structuralListForced = true
		}
	}

	f := classifyPacket(ctx, pkt, structuralListForced)

	listPresent := formatHasOptsField(f) && (structuralListForced || len(items) > 0)
	base := BuildBaseHeader(f, ctx, pkt, listPresent)
	base = append(base, BuildIrregularChain(ctx, pkt)...)
	if len(tsSackItems) > 0 {
		base = append(base, EncodeOptionList(tsSackItems)...)
	}
	if formatHasOptsField(f) && listPresent {
		base = append(base, EncodeOptionList(items)...)
	}

	out := FinalizeCRC(f, base)
	return Result{Bytes: out, PacketType: f, PayloadOffset: pkt.HeaderLen()}, nil
}

func formatHasOptsField(f FormatID) bool {
	switch f {
	case FormatSeq8, FormatRnd8, FormatCoCommon:
		return true
	default:
		return false
	}
}

// kindForItem recovers which TCP option kind an already-built list
// item refers to, by looking at which slot it points at.
func kindForItem(ctx *Context, item OptionListItem) (uint8, bool) {
	if int(item.Index) >= len(ctx.Options.slots) {
		return 0, false
	}
	slot := ctx.Options.slots[item.Index]
	if slot.kind == freeSlot {
		return 0, false
	}
	return slot.kind, true
}

// tcpProfileID is the ROHC profile identifier for TCP (RFC 6846),
// written verbatim into IR/IR-DYN headers.
const tcpProfileID = 0x06
