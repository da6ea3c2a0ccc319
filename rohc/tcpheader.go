package rohc

import "github.com/google/gopacket/layers"

// TCP flag bits, matching the teacher's constant.go layout (URG/ACK/
// PSH/RST/SYN/FIN packed into one byte) but against the real TCP flag
// positions rather than the teacher's pseudo-protocol ones.
const (
	FlagFIN uint8 = 1 << 0
	FlagSYN uint8 = 1 << 1
	FlagRST uint8 = 1 << 2
	FlagPSH uint8 = 1 << 3
	FlagACK uint8 = 1 << 4
	FlagURG uint8 = 1 << 5
	FlagECE uint8 = 1 << 6
	FlagCWR uint8 = 1 << 7
)

// TCPOption is one option as it appears on the wire, in order.
type TCPOption struct {
	Kind  uint8
	Value []byte // option-specific bytes, not including kind/length
}

// TCPHeader is the engine's own view of a TCP header: the fixed
// fields in host order plus the ordered option list, matching the I1
// invariant (host order in the context, network order on the wire).
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	SeqNumber  uint32
	AckNumber  uint32
	DataOffset uint8
	Flags      uint8
	WindowSize uint16
	Checksum   uint16
	URGPtr     uint16
	Options    []TCPOption
}

func tcpHeaderFromLayer(v *layers.TCP) TCPHeader {
	h := TCPHeader{
		SrcPort:    uint16(v.SrcPort),
		DstPort:    uint16(v.DstPort),
		SeqNumber:  v.Seq,
		AckNumber:  v.Ack,
		DataOffset: v.DataOffset,
		WindowSize: v.Window,
		Checksum:   v.Checksum,
		URGPtr:     v.Urgent,
	}
	if v.FIN {
		h.Flags |= FlagFIN
	}
	if v.SYN {
		h.Flags |= FlagSYN
	}
	if v.RST {
		h.Flags |= FlagRST
	}
	if v.PSH {
		h.Flags |= FlagPSH
	}
	if v.ACK {
		h.Flags |= FlagACK
	}
	if v.URG {
		h.Flags |= FlagURG
	}
	if v.ECE {
		h.Flags |= FlagECE
	}
	if v.CWR {
		h.Flags |= FlagCWR
	}
	for _, o := range v.Options {
		h.Options = append(h.Options, TCPOption{Kind: uint8(o.OptionType), Value: append([]byte(nil), o.OptionData...)})
	}
	return h
}

func (h *TCPHeader) hasFlag(f uint8) bool { return h.Flags&f != 0 }
