package rohc

// This file is C5: it serializes the format chosen by classifier.go
// into bytes and then commits the context for the packet that was
// just compressed.

// discriminators holds the wire-level prefixes of spec 6,
// stored as (bits, bitCount) so BuildBaseHeader can emit them with a
// single WriteBits call.
type discriminator struct {
	bits  uint32
	count uint8
}

var discriminators = map[FormatID]discriminator{
	FormatIR:       {0xFD, 8},
	FormatIRDYN:    {0xF8, 8},
	FormatCoCommon: {0x7D, 7},
	FormatRnd1:     {0x5C, 7}, // 101110x, x written as 0
	FormatRnd2:     {0xC, 4},
	FormatRnd3:     {0x0, 1}, // 0-prefix + 15-bit ack, width below
	FormatRnd4:     {0xD, 4},
	FormatRnd5:     {0x4, 3},
	FormatRnd6:     {0xA, 4},
	FormatRnd7:     {0x5E, 7}, // 101111x, x written as 0
	FormatRnd8:     {0x16, 5},
	FormatSeq1:     {0xA, 4},
	FormatSeq2:     {0x1A, 5},
	FormatSeq3:     {0x9, 4},
	FormatSeq4:     {0x0, 1},
	FormatSeq5:     {0x8, 4},
	FormatSeq6:     {0x1B, 5},
	FormatSeq7:     {0xC, 4},
	FormatSeq8:     {0xB, 4},
}

// BuildBaseHeader serializes the base header (without CRC, without
// irregular chain, without options) for a CO format.
func BuildBaseHeader(f FormatID, ctx *Context, pkt *ParsedPacket, listPresent bool) []byte {
	w := &BitWriter{}
	d := discriminators[f]
	w.WriteBits(d.bits, d.count)

	innerCtx := innermostCtx(ctx)
	innermost := pkt.Innermost()
	cur := &pkt.TCP

	writeIPID := func(field Field) {
		if innerCtx.V4 == nil {
			return
		}
		offset := ipIDOffset(innerCtx.V4.IPIDBehavior, innermost.IPID, ctx.MSN)
		w.WriteBits(uint32(LSB(field.K, uint32(offset))), field.K)
	}

	// newSeqScaled/newAckScaled are the current packet's scaled values,
	// not yet committed — CommitContext only writes ctx.TCP.SeqScaled/
	// AckScaled afterward, as the decompressor's next reference. The
	// wire must carry this packet's own LSBs, not the stale reference.
	newSeqScaled, _ := scaleField(cur.SeqNumber, uint32(pkt.PayloadSize))
	newAckScaled, _ := scaleField(cur.AckNumber, uint32(ctx.TCP.AckStride))

	switch f {
	case FormatSeq1:
		writeIPID(fieldIPID4p3)
		w.WriteBits(LSB(16, cur.SeqNumber), 16)
	case FormatRnd1:
		w.WriteBits(LSB(16, cur.SeqNumber), 16)
	case FormatSeq2:
		writeIPID(fieldIPID7p3)
		w.WriteBits(LSB(4, newSeqScaled), 4)
	case FormatRnd2:
		w.WriteBits(LSB(4, newSeqScaled), 4)
	case FormatSeq3:
		writeIPID(fieldIPID4p3)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
	case FormatRnd3:
		w.WriteBits(LSB(15, cur.AckNumber), 15)
	case FormatSeq4:
		writeIPID(fieldIPID3p1)
		w.WriteBits(LSB(4, newAckScaled), 4)
	case FormatRnd4:
		w.WriteBits(LSB(4, newAckScaled), 4)
	case FormatSeq5:
		writeIPID(fieldIPID4p3)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
		w.WriteBits(LSB(16, cur.SeqNumber), 16)
	case FormatRnd5:
		w.WriteBits(LSB(16, cur.AckNumber), 16)
		w.WriteBits(LSB(16, cur.SeqNumber), 16)
	case FormatSeq6:
		writeIPID(fieldIPID7p3)
		w.WriteBits(LSB(4, newSeqScaled), 4)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
	case FormatRnd6:
		w.WriteBits(LSB(4, newSeqScaled), 4)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
	case FormatSeq7:
		writeIPID(fieldIPID5p3)
		w.WriteBits(LSB(15, uint32(cur.WindowSize)), 15)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
	case FormatRnd7:
		w.WriteBits(LSB(15, uint32(cur.WindowSize)), 15)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
	case FormatSeq8:
		writeIPID(fieldIPID4p3)
		w.WriteBits(LSB(3, uint32(innermost.TTL)), 3)
		w.WriteBits(boolBit(ctx.TCP.ECNUsed), 1)
		w.WriteBits(LSB(14, cur.SeqNumber), 14)
		w.WriteBits(LSB(15, cur.AckNumber), 15)
		w.WriteBits(uint32(rsfBits(cur)), 3)
		w.WriteBits(boolBit(listPresent), 1)
		w.WriteBits(fieldMSN.bitsFor(uint32(ctx.MSN)), fieldMSN.K)
		w.WriteBits(boolBit(cur.hasFlag(FlagPSH)), 1)
	case FormatRnd8:
		w.WriteBits(LSB(3, uint32(innermost.TTL)), 3)
		w.WriteBits(boolBit(ctx.TCP.ECNUsed), 1)
		w.WriteBits(LSB(16, cur.SeqNumber), 16)
		w.WriteBits(LSB(16, cur.AckNumber), 16)
		w.WriteBits(uint32(rsfBits(cur)), 3)
		w.WriteBits(boolBit(listPresent), 1)
		w.WriteBits(fieldMSN.bitsFor(uint32(ctx.MSN)), fieldMSN.K)
		w.WriteBits(boolBit(cur.hasFlag(FlagPSH)), 1)
	case FormatCoCommon:
		sameSeq := cur.SeqNumber == ctx.TCP.SeqNumber
		sameAck := cur.AckNumber == ctx.TCP.AckNumber
		w.WriteBytes(VariableLength32(cur.SeqNumber, sameSeq))
		w.WriteBytes(VariableLength32(cur.AckNumber, sameAck))
		w.WriteBits(uint32(boolBit(ctx.TCP.AckStride != 0)), 1)
		w.WriteBits(LSB(16, uint32(cur.WindowSize)), 16)
		if innerCtx.V4 != nil {
			w.WriteBytes(VariableLength32(uint32(innermost.IPID), innermost.IPID == innerCtx.V4.LastIPID))
		} else {
			w.WriteBits(0, 2)
		}
		w.WriteBits(uint32((innermost.DSCP<<2)|innermost.ECN), 8)
		w.WriteBits(uint32(innermost.TTL), 8)
		w.WriteBits(boolBit(listPresent), 1)
		w.WriteBits(fieldMSN.bitsFor(uint32(ctx.MSN)), fieldMSN.K)
		w.WriteBits(boolBit(cur.hasFlag(FlagPSH)), 1)
	}

	if !foldedCRC(f) {
		w.WriteBits(fieldMSN.bitsFor(uint32(ctx.MSN)), fieldMSN.K)
		w.WriteBits(boolBit(cur.hasFlag(FlagPSH)), 1)
	}
	return w.Bytes()
}

func (f Field) bitsFor(v uint32) uint32 { return LSB(f.K, v) }

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func rsfBits(h *TCPHeader) uint8 {
	var v uint8
	if h.hasFlag(FlagRST) {
		v |= 0x4
	}
	if h.hasFlag(FlagSYN) {
		v |= 0x2
	}
	if h.hasFlag(FlagFIN) {
		v |= 0x1
	}
	return v
}

// foldedCRC reports whether a format's CRC is 7-bit (seq_8, rnd_8,
// co_common) rather than the common 3-bit CRC shared by the rest of
// the rnd/seq family, and consequently skips the shared MSN/psh tail
// those formats fold into their own bit layout above.
func foldedCRC(f FormatID) bool {
	switch f {
	case FormatSeq8, FormatRnd8, FormatCoCommon:
		return true
	default:
		return false
	}
}

func crcWidth(f FormatID) uint8 {
	if foldedCRC(f) {
		return 7
	}
	return 3
}

// FinalizeCRC appends the CRC over base (base header through the
// irregular chain and option list) computed with the CRC field
// implicitly zero (it has not been written yet), per spec 4.1.
func FinalizeCRC(f FormatID, base []byte) []byte {
	switch crcWidth(f) {
	case 7:
		return append(base, ComputeCRC7(base))
	default:
		return append(base, ComputeCRC3(base))
	}
}

// CommitContext implements the post-emission write-back of spec 4.5:
// old_tcp_header <- current header, per-IP last_ip_id/ttl/behavior <-
// current, scaled residues recomputed, MSN incremented.
func CommitContext(ctx *Context, pkt *ParsedPacket) {
	for i := range pkt.IPStack {
		h := &pkt.IPStack[i]
		cctx := &ctx.IPStack[i]
		if h.Version == IPv4 {
			v4 := cctx.V4
			v4.TTLIrregularPending = !cctx.IsInnermost && h.TTL != v4.TTL
			if cctx.IsInnermost {
				v4.UpdateIPIDBehavior(h.IPID)
			}
			v4.LastIPID = h.IPID
			v4.TTL = h.TTL
			v4.DSCP = h.DSCP
			v4.DF = h.DF
		} else {
			v6 := cctx.V6
			v6.TTLIrregularPending = !cctx.IsInnermost && h.TTL != v6.TTL
			v6.TTL = h.TTL
			v6.DSCP = h.DSCP
			for j := range v6.Extensions {
				if j >= len(h.Extensions) {
					break
				}
				v6.Extensions[j].LastGRESeq = h.Extensions[j].GRESeq
				v6.Extensions[j].LastAHSeq = h.Extensions[j].AHSeq
			}
		}
	}

	ctx.TCP.UpdateSeqChangeCount(pkt.TCP.SeqNumber)
	ctx.TCP.DetectAckStride(pkt.TCP.AckNumber)
	ctx.TCP.SeqScaled, ctx.TCP.SeqResidue = scaleField(pkt.TCP.SeqNumber, uint32(pkt.PayloadSize))
	ctx.TCP.ECNUsed = pkt.TCP.hasFlag(FlagECE) || pkt.TCP.hasFlag(FlagCWR)
	ctx.TCP.TTLIrregularChainFlag = anyOuterTTLPending(ctx)
	ctx.TCP.SeqNumber = pkt.TCP.SeqNumber
	ctx.TCP.AckNumber = pkt.TCP.AckNumber
	ctx.TCP.OldTCPHeader = pkt.TCP

	ctx.IncrementMSN()

	switch ctx.State {
	case StateIR:
		ctx.State = StateFO
	case StateFO:
		ctx.State = StateSO
	}
}

func anyOuterTTLPending(ctx *Context) bool {
	for _, c := range ctx.IPStack {
		if c.IsInnermost {
			continue
		}
		if c.V4 != nil && c.V4.TTLIrregularPending {
			return true
		}
		if c.V6 != nil && c.V6.TTLIrregularPending {
			return true
		}
	}
	return false
}
