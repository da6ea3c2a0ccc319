package rohc

import "errors"

// Error kinds from the error-handling table, returned or wrapped by
// ParsePacket, Compress and the TCP option table so a caller can branch
// on errors.Is without parsing strings. CheckProfile and CheckContext
// report through their bool/ContextMatch results, not through these.
var (
	// ErrIneligiblePacket means the packet cannot belong to any TCP
	// ROHC context: it is fragmented, carries IPv4 options, is not
	// TCP, or its addresses/ports don't match any context.
	ErrIneligiblePacket = errors.New("rohc: packet not eligible for TCP profile")

	// ErrNotThisContext means the packet is TCP/IP but does not match
	// a specific context (I5). CheckContext reports this case as
	// ContextNotBelongs; no function in this package returns this error.
	ErrNotThisContext = errors.New("rohc: packet does not belong to this context")

	// ErrOptionTableFull means all 16 TCP option slots are occupied by
	// distinct kinds/values and a new one could not be interned; the
	// offending option is dropped from the compressed list.
	ErrOptionTableFull = errors.New("rohc: tcp option table full")

	// ErrOptionArenaExhausted means a TCP option value is longer than
	// the per-slot value buffer that caches it; the offending option is
	// dropped.
	ErrOptionArenaExhausted = errors.New("rohc: tcp option value arena exhausted")

	// ErrBufferTooSmall means dest passed to Compress cannot hold the
	// chosen format's output.
	ErrBufferTooSmall = errors.New("rohc: destination buffer too small")

	// ErrUnsupportedChain means the packet cannot be represented and is
	// rejected rather than mis-compressed: Compress returns it when the
	// IP header stack no longer has the context's shape, and the
	// Timestamp/SACK option compressors return it for a malformed value
	// (that option is then dropped).
	ErrUnsupportedChain = errors.New("rohc: packet exercises unsupported chain")
)
