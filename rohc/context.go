package rohc

// IPIDBehavior classifies how a header's IP-ID field evolves across
// packets. unknown is a first-packet-only transient (I3): after the
// first packet it must settle into one of the other four and never
// leave that set again.
type IPIDBehavior uint8

const (
	IPIDUnknown IPIDBehavior = iota
	IPIDZero
	IPIDSequential
	IPIDSequentialSwapped
	IPIDRandom
)

func (b IPIDBehavior) String() string {
	switch b {
	case IPIDZero:
		return "zero"
	case IPIDSequential:
		return "sequential"
	case IPIDSequentialSwapped:
		return "sequential-swapped"
	case IPIDRandom:
		return "random"
	default:
		return "unknown"
	}
}

// CompressorState is the IR/FO/SO state machine of spec 7.
type CompressorState uint8

const (
	StateIR CompressorState = iota
	StateFO
	StateSO
)

// IPv4Context is the per-flow memory for one IPv4 header in the
// tunnel stack.
type IPv4Context struct {
	SrcAddr, DstAddr     [4]byte
	Protocol             uint8
	DSCP                 uint8
	DF                   bool
	TTL                  uint8
	LastIPID             uint16
	IPIDBehavior         IPIDBehavior
	LastIPIDBehavior     IPIDBehavior
	TTLIrregularPending  bool // set when this header's TTL changed since the last commit (outer headers only)
}

// IPv6Context is the per-flow memory for one IPv6 header in the tunnel
// stack, including its ordered extension-header sub-contexts.
type IPv6Context struct {
	SrcAddr, DstAddr    [16]byte
	NextHeader          uint8
	DSCP                uint8
	FlowLabel           uint32 // 20 bits
	TTL                 uint8
	TTLIrregularPending bool
	Extensions          []IPv6ExtContext
}

// IPv6ExtContext is the per-flow memory for one IPv6 extension header.
type IPv6ExtContext struct {
	Kind       IPv6ExtKind
	NextHeader uint8
	RawLen     int

	GREFlagC, GREFlagK, GREFlagS bool
	GREKey                       uint32
	LastGRESeq                   uint32

	AHSPI      uint32
	LastAHSeq  uint32
}

// IPHeaderContext is the tagged-variant context entry for one level
// of the tunnel stack, outer-to-inner ordered.
type IPHeaderContext struct {
	Version     IPVersion
	IsInnermost bool
	V4          *IPv4Context
	V6          *IPv6Context
}

// TCPContext is the per-flow TCP memory: last sent header snapshot,
// scaled-field residues, and the stride/change-count bookkeeping the
// original implementation keeps (supplemented from
// original_source/src/comp/c_tcp.c, see SPEC_FULL.md 5.1).
type TCPContext struct {
	SrcPort, DstPort uint16

	SeqNumber uint32 // last sent, host order
	AckNumber uint32

	OldTCPHeader TCPHeader // full snapshot of the last compressed TCP header

	ECNUsed bool

	AckStride uint16 // 0 = disabled

	SeqScaled, SeqResidue uint32
	AckScaled, AckResidue uint32

	LastSeqNumber           uint32
	SeqNumberChangeCount    uint32

	TTLIrregularChainFlag bool // an outer TTL changed since the last commit
}

// Context is the per-flow compression context: created on the first
// packet of a flow, mutated on every subsequent compress, destroyed by
// the caller when the flow is gone. It owns its IP-header stack and
// TCP option table exclusively (no cyclic references, see
// SPEC_FULL.md/DESIGN.md on ownership).
type Context struct {
	IPStack []IPHeaderContext // outer-to-inner order
	TCP     TCPContext
	MSN     uint16
	State   CompressorState
	Options TCPOptionTable

	cfg EngineConfig
}

// EngineConfig holds the engine-wide tunables that are not part of the
// per-flow context (config.Config loads these from YAML, see
// config/config.go).
type EngineConfig struct {
	MaxTCPOptionIndex    int // 8 or 16
	OptionValueArenaSize int // default 128
	TTLIrregularOnAnyOuterChange bool
}

// DefaultEngineConfig mirrors the teacher's DefaultPcpCoreConfig
// pattern of a package-level constructor for sane defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxTCPOptionIndex:            16,
		OptionValueArenaSize:         128,
		TTLIrregularOnAnyOuterChange: true,
	}
}

// NewContext builds a fresh context from the first packet of a flow,
// seeding MSN from rnd and priming the IP/TCP sub-contexts so that the
// very next call to Compress on this context will choose IR.
func NewContext(pkt *ParsedPacket, rnd RandomSource, cfg EngineConfig) *Context {
	ctx := &Context{
		MSN:   uint16(rnd.Uint32()),
		State: StateIR,
		cfg:   cfg,
	}
	ctx.Options.init(cfg)

	for i := range pkt.IPStack {
		h := &pkt.IPStack[i]
		entry := IPHeaderContext{Version: h.Version, IsInnermost: h.IsInnermost}
		if h.Version == IPv4 {
			entry.V4 = &IPv4Context{
				SrcAddr:          h.SrcAddrV4,
				DstAddr:          h.DstAddrV4,
				Protocol:         h.Protocol,
				DSCP:             h.DSCP,
				DF:               h.DF,
				TTL:              h.TTL,
				LastIPID:         h.IPID,
				IPIDBehavior:     IPIDUnknown,
				LastIPIDBehavior: IPIDUnknown,
			}
		} else {
			v6 := &IPv6Context{
				SrcAddr:    h.SrcAddrV6,
				DstAddr:    h.DstAddrV6,
				NextHeader: h.NextHeader,
				DSCP:       h.DSCP,
				FlowLabel:  h.FlowLabel,
				TTL:        h.TTL,
			}
			for _, ext := range h.Extensions {
				v6.Extensions = append(v6.Extensions, IPv6ExtContext{
					Kind:       ext.Kind,
					NextHeader: ext.NextHeader,
					RawLen:     len(ext.Raw),
					GREFlagC:   ext.GREFlagC,
					GREFlagK:   ext.GREFlagK,
					GREFlagS:   ext.GREFlagS,
					GREKey:     ext.GREKey,
					LastGRESeq: ext.GRESeq,
					AHSPI:      ext.AHSPI,
					LastAHSeq:  ext.AHSeq,
				})
			}
			entry.V6 = v6
		}
		ctx.IPStack = append(ctx.IPStack, entry)
	}

	ctx.TCP = TCPContext{
		SrcPort:      pkt.TCP.SrcPort,
		DstPort:      pkt.TCP.DstPort,
		SeqNumber:    pkt.TCP.SeqNumber,
		AckNumber:    pkt.TCP.AckNumber,
		OldTCPHeader: pkt.TCP,
	}
	ctx.TCP.LastSeqNumber = pkt.TCP.SeqNumber
	return ctx
}
