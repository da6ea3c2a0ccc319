// Package rohc implements the compressor side of the ROHC TCP/IP profile
// described in RFC 6846. It keeps, per TCP flow, a Context that mirrors
// the fields the decompressor is assumed to hold, classifies each new
// packet against that context into one of the IR/IR-DYN/CO packet
// formats, serializes the chosen format, and commits the context for
// the next packet.
//
// The package does not decompress, does not allocate or frame CIDs, and
// does not multiplex across flows; those are the caller's job, reached
// only through the interfaces in interfaces.go.
package rohc
