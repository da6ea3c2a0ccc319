package rohc

// This file has the per-kind static/dynamic/irregular builders for
// IPv6 extension headers (C2's extension sub-walk). GRE and AH carry
// a sequence number compressed with a one-bit-discriminator 7-or-31-
// bit LSB encoding against the cached last sequence, per spec 4.2.

func appendIPv6ExtStatic(out []byte, exts []IPv6ExtensionHeader) []byte {
	for _, e := range exts {
		out = append(out, byte(e.Kind), e.NextHeader)
		switch e.Kind {
		case IPv6ExtGRE:
			var flags uint8
			if e.GREFlagC {
				flags |= 0x4
			}
			if e.GREFlagK {
				flags |= 0x2
			}
			if e.GREFlagS {
				flags |= 0x1
			}
			out = append(out, flags)
			if e.GREFlagK {
				out = append(out, byte(e.GREKey>>24), byte(e.GREKey>>16), byte(e.GREKey>>8), byte(e.GREKey))
			}
		case IPv6ExtAH:
			out = append(out, byte(e.AHSPI>>24), byte(e.AHSPI>>16), byte(e.AHSPI>>8), byte(e.AHSPI))
		default:
			// Hop-by-Hop/Routing/Destination/MIME: the static part is
			// just the kind/next-header pair plus raw length, the
			// option content itself is dynamic or irregular.
			out = append(out, byte(len(e.Raw)))
		}
	}
	return out
}

func appendIPv6ExtDynamic(out []byte, exts []IPv6ExtensionHeader) []byte {
	for _, e := range exts {
		switch e.Kind {
		case IPv6ExtHopByHop, IPv6ExtRouting, IPv6ExtDestination, IPv6ExtMIME:
			out = append(out, e.Raw...)
		case IPv6ExtGRE, IPv6ExtAH:
			// sequence numbers are irregular-chain material, nothing
			// dynamic beyond what the static part already carries.
		}
	}
	return out
}

func appendIPv6ExtIrregular(out []byte, ctxExts []IPv6ExtContext, pktExts []IPv6ExtensionHeader) []byte {
	n := len(ctxExts)
	if len(pktExts) < n {
		n = len(pktExts)
	}
	for i := 0; i < n; i++ {
		c := &ctxExts[i]
		e := &pktExts[i]
		switch c.Kind {
		case IPv6ExtGRE:
			if c.GREFlagS {
				out = append(out, lsbSeq(c.LastGRESeq, e.GRESeq)...)
			}
		case IPv6ExtAH:
			out = append(out, lsbSeq(c.LastAHSeq, e.AHSeq)...)
		}
	}
	return out
}

// lsbSeq implements the GRE/AH sequence codec: discriminator bit 0
// plus 7 low bits when the high 25 bits of ref match seq, else
// discriminator bit 1 plus the full 31-bit value.
func lsbSeq(ref, seq uint32) []byte {
	if ref>>7 == seq>>7 {
		return []byte{byte(seq & 0x7F)}
	}
	v := (seq & 0x7FFFFFFF) | 0x80000000
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
