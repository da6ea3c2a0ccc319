package rohc

import (
	"fmt"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// Fixed option kinds, RFC-numbered.
const (
	OptKindEOL       uint8 = 0
	OptKindNOP       uint8 = 1
	OptKindMSS       uint8 = 2
	OptKindWS        uint8 = 3
	OptKindSACKPerm  uint8 = 4
	OptKindSACK      uint8 = 5
	OptKindTimestamp uint8 = 8
)

const freeSlot uint8 = 0xFF

// fixedOptionIndex is tcp_options_index from
// original_source/src/comp/c_tcp.c: the compile-time map from a
// well-known TCP option kind to its table slot. Index 6 has no kind
// mapped to it and stays permanently free; it is never dynamically
// allocated either, matching the original table's unused placeholder.
var fixedOptionIndex = map[uint8]uint8{
	OptKindEOL:       0,
	OptKindNOP:       1,
	OptKindMSS:       2,
	OptKindWS:        3,
	OptKindSACKPerm:  4,
	OptKindSACK:      5,
	OptKindTimestamp: 8,
}

const reservedSlotCount = 7 // slots 0..6, even though 6 maps to no kind

// dynamicSlotOrder is the search order the "new index" allocation
// path uses: slot 7, then 9..15 (6 is reserved/unused, 8 is the fixed
// Timestamp slot).
var dynamicSlotOrder = []uint8{7, 9, 10, 11, 12, 13, 14, 15}

// optionSlot is one entry of the 16-slot table. value aliases the
// ring-pool element's backing slice for as long as elem is non-nil;
// elem is acquired once, on this slot's first use, and held for the
// table's lifetime rather than returned after every packet, since a
// context's option table never needs more live elements than it has
// slots.
type optionSlot struct {
	kind  uint8 // freeSlot iff unused (I4)
	elem  *rp.Element
	value []byte
}

// TCPOptionTable is the 16-slot associative store of spec 4.3: it
// remembers which option kind occupies which index and the last value
// seen for that kind, so that unchanged options can be referenced by
// index alone. Cached values live in ring-pool elements (see
// optionvalue.go) rather than a plain byte slice, following the
// teacher's own lib/pool.go pattern for per-packet payload storage.
type TCPOptionTable struct {
	slots [16]optionSlot

	pool   *rp.RingPool
	maxIdx int
}

func (t *TCPOptionTable) init(cfg EngineConfig) {
	for i := range t.slots {
		t.slots[i].kind = freeSlot
		t.slots[i].elem = nil
	}
	poolSize := cfg.OptionValueArenaSize
	if poolSize <= 0 {
		poolSize = len(t.slots)
	}
	t.pool = rp.NewRingPool(fmt.Sprintf("rohc-opts[%p]: ", t), poolSize, newOptionValueBuffer, optionValueBufferLen)
	t.maxIdx = cfg.MaxTCPOptionIndex
	if t.maxIdx != 8 && t.maxIdx != 16 {
		t.maxIdx = 16
	}
}

// OptionListItem is one entry the compressed TCP option list will
// carry for the current packet.
type OptionListItem struct {
	Index        uint8
	ValuePresent bool
	Value        []byte // only meaningful when ValuePresent
}

// PeekValue returns the value currently cached for kind, if any slot
// holds it, without mutating the table. Callers that need the
// previous value as an LSB reference (Timestamp, SACK) must read it
// before calling Intern, which overwrites it.
func (t *TCPOptionTable) PeekValue(kind uint8) ([]byte, bool) {
	idx, ok := t.indexForPeek(kind)
	if !ok {
		return nil, false
	}
	return t.slots[idx].value, true
}

func (t *TCPOptionTable) indexForPeek(kind uint8) (uint8, bool) {
	if idx, fixed := fixedOptionIndex[kind]; fixed {
		if t.slots[idx].kind == kind {
			return idx, true
		}
		return 0, false
	}
	return t.indexFor(kind)
}

// indexFor returns the slot index a given kind is already occupying,
// or ok=false if it holds no slot yet.
func (t *TCPOptionTable) indexFor(kind uint8) (uint8, bool) {
	for i, s := range t.slots {
		if s.kind == kind {
			return uint8(i), true
		}
	}
	return 0, false
}

// Intern runs the per-packet protocol of spec 4.3 step 1-4 for one TCP
// option occurrence: look up by fixed index when one exists, else find
// or allocate a dynamic slot by (kind, value) identity, else drop it.
//
// compressedValue is the bytes to carry in the list item's value area
// when ValuePresent is true (already encoded per spec 4.3's
// "Compressed values" rules — MSS/WS verbatim, TS via TSLsb x2, SACK
// via SackPureLSB per block, unknown via the two-byte generic
// fallback).
func (t *TCPOptionTable) Intern(kind uint8, rawValue []byte, compressedValue []byte) (OptionListItem, error) {
	if idx, fixed := fixedOptionIndex[kind]; fixed {
		return t.internFixed(idx, kind, rawValue, compressedValue)
	}
	return t.internDynamic(kind, rawValue, compressedValue)
}

func (t *TCPOptionTable) internFixed(idx uint8, kind uint8, rawValue, compressedValue []byte) (OptionListItem, error) {
	slot := &t.slots[idx]
	if slot.kind == freeSlot {
		if err := t.storeValue(slot, kind, rawValue); err != nil {
			return OptionListItem{}, err
		}
		return OptionListItem{Index: idx, ValuePresent: true, Value: compressedValue}, nil
	}
	// Timestamp and SACK change essentially every packet, so they
	// always re-emit a value, but through the very same index.
	if kind == OptKindTimestamp || kind == OptKindSACK {
		if err := t.storeValue(slot, kind, rawValue); err != nil {
			return OptionListItem{}, err
		}
		return OptionListItem{Index: idx, ValuePresent: true, Value: compressedValue}, nil
	}
	if bytesEqual(slot.value, rawValue) {
		return OptionListItem{Index: idx, ValuePresent: false}, nil
	}
	if err := t.storeValue(slot, kind, rawValue); err != nil {
		return OptionListItem{}, err
	}
	return OptionListItem{Index: idx, ValuePresent: true, Value: compressedValue}, nil
}

func (t *TCPOptionTable) internDynamic(kind uint8, rawValue, compressedValue []byte) (OptionListItem, error) {
	for i := range t.slots {
		if t.slots[i].kind == kind && bytesEqual(t.slots[i].value, rawValue) {
			return OptionListItem{Index: uint8(i), ValuePresent: false}, nil
		}
	}
	for _, idx := range dynamicSlotOrder {
		if int(idx) >= t.maxIndex() {
			continue
		}
		if t.slots[idx].kind == freeSlot {
			if err := t.storeValue(&t.slots[idx], kind, rawValue); err != nil {
				return OptionListItem{}, err
			}
			return OptionListItem{Index: idx, ValuePresent: true, Value: compressedValue}, nil
		}
	}
	return OptionListItem{}, ErrOptionTableFull
}

func (t *TCPOptionTable) maxIndex() int {
	if t.maxIdx == 0 {
		return 16
	}
	return t.maxIdx
}

func (t *TCPOptionTable) storeValue(slot *optionSlot, kind uint8, rawValue []byte) error {
	if len(rawValue) == 0 {
		slot.kind = kind
		slot.value = nil
		return nil
	}
	if slot.elem == nil {
		slot.elem = t.pool.GetElement()
	}
	buffer := slot.elem.Data.(*optionValueBuffer)
	if err := buffer.Copy(rawValue); err != nil {
		return err
	}
	slot.kind = kind
	slot.value = buffer.GetSlice()
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EncodeOptionList serializes items using the 16-index, 8-bit-item
// list encoding of spec 4.3 ("With 16 indices, items are 8 bits: a
// 1-bit value-present flag plus a 7-bit index"). A list-present byte
// (item count) precedes the items; values follow the last item in
// order.
func EncodeOptionList(items []OptionListItem) []byte {
	if len(items) == 0 {
		return []byte{0x00}
	}
	out := make([]byte, 0, 1+len(items)+4*len(items))
	out = append(out, byte(len(items)))
	for _, it := range items {
		b := it.Index & 0x7F
		if it.ValuePresent {
			b |= 0x80
		}
		out = append(out, b)
	}
	for _, it := range items {
		if it.ValuePresent {
			out = append(out, it.Value...)
		}
	}
	return out
}

// String is a debug helper that summarises how many slots are in use.
func (t *TCPOptionTable) String() string {
	return fmt.Sprintf("TCPOptionTable{used=%d/%d}", t.usedSlots(), len(t.slots))
}

func (t *TCPOptionTable) usedSlots() int {
	n := 0
	for _, s := range t.slots {
		if s.kind != freeSlot {
			n++
		}
	}
	return n
}
