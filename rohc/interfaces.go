package rohc

// RandomSource supplies the one random draw used to seed a new
// context's MSN. It is consumed exactly once per context lifetime.
type RandomSource interface {
	Uint32() uint32
}

// Tracer receives opaque, side-effect-only packet dumps and warnings.
// Implementations must not block and must not mutate anything the
// engine passed in.
type Tracer interface {
	Tracef(format string, args ...interface{})
}

// NopTracer discards everything. It is the default when no Tracer is
// supplied to Compress.
type NopTracer struct{}

func (NopTracer) Tracef(string, ...interface{}) {}

// CIDType distinguishes the small/large-CID wire convention; the
// compressor only reserves the first byte according to this rule, it
// never allocates or owns a CID itself.
type CIDType int

const (
	CIDTypeSmall CIDType = iota
	CIDTypeLarge
)

// CIDEmitter writes the CID prefix for a packet. It is supplied by the
// multiplexer that owns CID allocation; this package never implements
// it.
type CIDEmitter interface {
	CodeCIDValues(cidType CIDType, cid uint16, buf []byte) (n int, err error)
}
