package rohc

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// IPVersion tags the variant held by IPHeader and IPHeaderContext.
type IPVersion uint8

const (
	IPv4 IPVersion = 4
	IPv6 IPVersion = 6
)

// IPHeader is the engine's own view of one IP header in the stack,
// populated from a gopacket layer by ParsePacket. It carries exactly
// the fields the chain walker (C2) needs; it is not a general-purpose
// IP header representation.
type IPHeader struct {
	Version     IPVersion
	IsInnermost bool

	// IPv4 fields
	SrcAddrV4  [4]byte
	DstAddrV4  [4]byte
	Protocol   uint8
	DSCP       uint8
	ECN        uint8
	DF         bool
	MF         bool
	TTL        uint8
	IPID       uint16
	HeaderLen5 bool // true iff IHL == 5 (no IPv4 options)

	// IPv6 fields
	SrcAddrV6  [16]byte
	DstAddrV6  [16]byte
	NextHeader uint8
	FlowLabel  uint32 // 20 bits
	Extensions []IPv6ExtensionHeader
}

// IPv6ExtensionHeader is one parsed IPv6 extension header occurring
// between the fixed header and the transport header.
type IPv6ExtensionHeader struct {
	Kind       IPv6ExtKind
	NextHeader uint8
	Raw        []byte // the extension's own bytes, including its length octet

	// GRE-specific (Kind == IPv6ExtGRE)
	GREFlagC, GREFlagK, GREFlagS bool
	GREKey                      uint32
	GRESeq                      uint32

	// AH-specific (Kind == IPv6ExtAH)
	AHSPI uint32
	AHSeq uint32
}

// IPv6ExtKind enumerates the extension sub-contexts the walker knows
// how to build static/dynamic/irregular parts for.
type IPv6ExtKind uint8

const (
	IPv6ExtHopByHop IPv6ExtKind = iota
	IPv6ExtRouting
	IPv6ExtDestination
	IPv6ExtGRE
	IPv6ExtMIME
	IPv6ExtAH
)

// ParsedPacket is the result of walking a captured frame: the ordered
// IP header stack (outer first, innermost last) plus the TCP header
// and payload offset. check_profile/check_context/Compress all operate
// on this, never on raw bytes directly.
type ParsedPacket struct {
	IPStack     []IPHeader
	TCP         TCPHeader
	PayloadSize int
	raw         []byte
}

// ParsePacket walks a raw IP frame with gopacket, extracting the
// tunneled IP header stack and the TCP header the same way the
// teacher's capture loops build a gopacket.Packet before touching its
// fields (lib/util-win.go, filter/filter-win.go).
func ParsePacket(frame []byte, firstLayer gopacket.LayerType) (*ParsedPacket, error) {
	pkt := gopacket.NewPacket(frame, firstLayer, gopacket.NoCopy)
	if err := pkt.ErrorLayer(); err != nil {
		return nil, fmt.Errorf("rohc: decode error: %w", err.Error())
	}

	pp := &ParsedPacket{raw: frame}

	layersList := pkt.Layers()
	for i, l := range layersList {
		switch v := l.(type) {
		case *layers.IPv4:
			if v.FragOffset != 0 || v.Flags&layers.IPv4MoreFragments != 0 {
				return nil, ErrIneligiblePacket
			}
			if len(v.Options) > 0 || v.IHL != 5 {
				return nil, ErrIneligiblePacket
			}
			h := IPHeader{
				Version:    IPv4,
				Protocol:   uint8(v.Protocol),
				DSCP:       v.TOS >> 2,
				ECN:        v.TOS & 0x3,
				DF:         v.Flags&layers.IPv4DontFragment != 0,
				TTL:        v.TTL,
				IPID:       v.Id,
				HeaderLen5: v.IHL == 5,
			}
			copy(h.SrcAddrV4[:], v.SrcIP.To4())
			copy(h.DstAddrV4[:], v.DstIP.To4())
			h.IsInnermost = isInnermostIP(layersList[i+1:])
			pp.IPStack = append(pp.IPStack, h)

		case *layers.IPv6:
			h := IPHeader{
				Version:    IPv6,
				NextHeader: uint8(v.NextHeader),
				DSCP:       uint8(v.TrafficClass >> 2),
				ECN:        uint8(v.TrafficClass & 0x3),
				TTL:        v.HopLimit,
				FlowLabel:  v.FlowLabel,
			}
			copy(h.SrcAddrV6[:], v.SrcIP.To16())
			copy(h.DstAddrV6[:], v.DstIP.To16())
			h.IsInnermost = isInnermostIP(layersList[i+1:])
			pp.IPStack = append(pp.IPStack, h)

		case *layers.TCP:
			pp.TCP = tcpHeaderFromLayer(v)
		}
	}

	if len(pp.IPStack) == 0 {
		return nil, ErrIneligiblePacket
	}
	if app := pkt.ApplicationLayer(); app != nil {
		pp.PayloadSize = len(app.Payload())
	}
	return pp, nil
}

// isInnermostIP reports whether no further IPv4/IPv6 layer follows,
// i.e. the next thing is the transport header (TCP here, since
// tunneling of anything else is out of scope).
func isInnermostIP(rest []gopacket.Layer) bool {
	for _, l := range rest {
		switch l.(type) {
		case *layers.IPv4, *layers.IPv6:
			return false
		}
	}
	return true
}

// Innermost returns the innermost IP header, the one whose TTL/ECN
// live in the CO base header rather than the irregular chain.
func (pp *ParsedPacket) Innermost() *IPHeader {
	return &pp.IPStack[len(pp.IPStack)-1]
}

// HeaderLen is the combined length of every tunneled IP header plus
// the TCP header, i.e. the offset into raw where the payload this
// packet carries begins — what a caller splices onto a compressed
// header to reassemble the frame.
func (pp *ParsedPacket) HeaderLen() int {
	return len(pp.raw) - pp.PayloadSize
}
