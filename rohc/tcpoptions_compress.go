package rohc

import "encoding/binary"

// CompressOptions runs the per-packet protocol of spec 4.3 over every
// TCP option of hdr, in wire order, against the context's option
// table. It returns the list items to carry in the compressed packet
// (empty if hdr carries only EOL/NOP padding) and reports through tr
// whenever an option had to be dropped (table full or arena
// exhausted) rather than failing the whole compression — per the error
// table, a dropped option is a warning, not a hard error.
func CompressOptions(ctx *Context, hdr *TCPHeader, tr Tracer) []OptionListItem {
	if tr == nil {
		tr = NopTracer{}
	}
	var items []OptionListItem
	for _, opt := range hdr.Options {
		switch opt.Kind {
		case OptKindEOL, OptKindNOP:
			continue
		case OptKindSACKPerm:
			item, err := ctx.Options.Intern(opt.Kind, nil, nil)
			if err != nil {
				tr.Tracef("rohc: dropping SACK-permitted option: %v", err)
				continue
			}
			items = append(items, item)
		case OptKindMSS:
			item, err := ctx.Options.Intern(opt.Kind, opt.Value, append([]byte(nil), opt.Value...))
			if err != nil {
				tr.Tracef("rohc: dropping MSS option: %v", err)
				continue
			}
			items = append(items, item)
		case OptKindWS:
			item, err := ctx.Options.Intern(opt.Kind, opt.Value, append([]byte(nil), opt.Value...))
			if err != nil {
				tr.Tracef("rohc: dropping window-scale option: %v", err)
				continue
			}
			items = append(items, item)
		case OptKindTimestamp:
			item, err := compressTimestampOption(ctx, opt)
			if err != nil {
				tr.Tracef("rohc: dropping timestamp option: %v", err)
				continue
			}
			items = append(items, item)
		case OptKindSACK:
			item, err := compressSACKOption(ctx, opt)
			if err != nil {
				tr.Tracef("rohc: dropping SACK option: %v", err)
				continue
			}
			items = append(items, item)
		default:
			// Generic TCP options beyond the known seven: spec 4.3's
			// permissive fallback emits two fixed discriminator
			// bytes regardless of value. DESIGN.md Open Question:
			// RFC 6846 6.3.7's generic_full_irregular is not
			// implemented; values are not actually round-trippable
			// through this fallback, matching original_source's own
			// non-compliant behavior (kept intentionally, see
			// DESIGN.md).
			item, err := ctx.Options.Intern(opt.Kind, opt.Value, []byte{0xFF, 0x00})
			if err != nil {
				tr.Tracef("rohc: dropping unknown option kind %d: %v", opt.Kind, err)
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

func compressTimestampOption(ctx *Context, opt TCPOption) (OptionListItem, error) {
	if len(opt.Value) != 8 {
		return OptionListItem{}, ErrUnsupportedChain
	}
	tsval := binary.BigEndian.Uint32(opt.Value[0:4])
	tsecr := binary.BigEndian.Uint32(opt.Value[4:8])

	refTSval, refTSecr := tsval, tsecr
	if prev, ok := ctx.Options.PeekValue(OptKindTimestamp); ok && len(prev) == 8 {
		refTSval = binary.BigEndian.Uint32(prev[0:4])
		refTSecr = binary.BigEndian.Uint32(prev[4:8])
	}

	compressed := append(TSLsb(refTSval, tsval), TSLsb(refTSecr, tsecr)...)
	return ctx.Options.Intern(OptKindTimestamp, opt.Value, compressed)
}

// SACKBlock is one SACK edge pair as carried in the option.
type SACKBlock struct {
	Left, Right uint32
}

func parseSACKBlocks(value []byte) []SACKBlock {
	var blocks []SACKBlock
	for i := 0; i+8 <= len(value); i += 8 {
		blocks = append(blocks, SACKBlock{
			Left:  binary.BigEndian.Uint32(value[i : i+4]),
			Right: binary.BigEndian.Uint32(value[i+4 : i+8]),
		})
	}
	return blocks
}

func compressSACKOption(ctx *Context, opt TCPOption) (OptionListItem, error) {
	blocks := parseSACKBlocks(opt.Value)
	if len(blocks) == 0 || len(blocks) > 4 {
		return OptionListItem{}, ErrUnsupportedChain
	}
	base := ctx.TCP.AckNumber
	out := []byte{byte(len(blocks))}
	for _, b := range blocks {
		out = append(out, SackPureLSB(base, b.Left)...)
		out = append(out, SackPureLSB(b.Left, b.Right)...)
		base = b.Right
	}
	return ctx.Options.Intern(OptKindSACK, opt.Value, out)
}
