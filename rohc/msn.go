package rohc

// IncrementMSN advances the Master Sequence Number by one, wrapping
// mod 2^16 (P3: MSN after n compressed packets equals (MSN_0+n) mod
// 2^16).
func (ctx *Context) IncrementMSN() {
	ctx.MSN++
}

// classifyIPIDBehavior implements the IP-ID behavior state machine of
// spec 4.2/7: unknown is only ever returned before the first
// classification; from then on the four steady behaviors are the only
// possible outputs (I3). DESIGN.md Open Question: the source's
// IP_ID_BEHAVIOR_SEQUENTIAL_ZERO trace is not reproduced; zero stays
// its own behavior, distinct from sequential, as the four-value enum
// in spec.md 3 intends.
func classifyIPIDBehavior(last IPIDBehavior, lastIPID, observedIPID uint16) IPIDBehavior {
	if observedIPID == 0 {
		return IPIDZero
	}
	if observedIPID == lastIPID+1 {
		return IPIDSequential
	}
	if swap16(observedIPID) == swap16(lastIPID)+1 {
		return IPIDSequentialSwapped
	}
	return IPIDRandom
}

// UpdateIPIDBehavior classifies the observed IP-ID of the current
// packet against v4's history and rotates LastIPIDBehavior/
// IPIDBehavior, ready for the classifier's "ip_id_behavior changed"
// check (C4's co_common-forcing rule).
func (v4 *IPv4Context) UpdateIPIDBehavior(observedIPID uint16) {
	v4.LastIPIDBehavior = v4.IPIDBehavior
	v4.IPIDBehavior = classifyIPIDBehavior(v4.IPIDBehavior, v4.LastIPID, observedIPID)
}

// scaleField implements the original's c_field_scaling macro
// (original_source/src/comp/c_tcp.c:880,886): a value divided by a
// per-flow stride, with the remainder cached as the residue. A zero
// stride (scaling disabled, or no payload to scale seq_number by)
// degenerates to an unscaled residue equal to the value itself.
func scaleField(value, stride uint32) (scaled, residue uint32) {
	if stride == 0 {
		return 0, value
	}
	return value / stride, value % stride
}

// DetectAckStride arms ack_stride scaling from the latest nonzero ack
// delta and recomputes AckScaled/AckResidue against it. A zero delta
// leaves the stride and the scaled values untouched.
func (tc *TCPContext) DetectAckStride(newAck uint32) {
	delta := newAck - tc.AckNumber
	if delta == 0 {
		return
	}
	// A single sample arms a new stride optimistically; the
	// classifier falls back to co_common if scaling turns out not to
	// cover the next delta.
	if uint32(tc.AckStride) != delta {
		tc.AckStride = uint16(delta)
	}
	tc.AckScaled, tc.AckResidue = scaleField(newAck, uint32(tc.AckStride))
}

// UpdateSeqChangeCount tracks how many consecutive packets changed
// seq_number, mirroring the original's tcp_seq_number_change_count.
func (tc *TCPContext) UpdateSeqChangeCount(newSeq uint32) {
	if newSeq != tc.SeqNumber {
		tc.SeqNumberChangeCount++
	} else {
		tc.SeqNumberChangeCount = 0
	}
	tc.LastSeqNumber = tc.SeqNumber
}
