package rohc

import (
	"fmt"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// optionValueBuffer is the ring-pool element payload backing each of
// the 16 TCP-option-table slots' cached raw value. It mirrors the
// teacher's lib/pool.go Payload type: a fixed-capacity byte slice plus
// a used-length, satisfying the same DataInterface contract
// (SetContent/Reset/PrintContent/Copy/GetSlice) that ring pool
// elements carry as their opaque payload.
type optionValueBuffer struct {
	bytes  []byte
	length int
}

// optionValueBufferLen is sized for the widest value a slot ever
// caches: a four-block SACK option (1 + 4*8 bytes).
const optionValueBufferLen = 40

// newOptionValueBuffer is the ring pool's element factory, matching
// the teacher's NewPayload(params ...interface{}) rp.DataInterface
// signature.
func newOptionValueBuffer(params ...interface{}) rp.DataInterface {
	return &optionValueBuffer{bytes: make([]byte, optionValueBufferLen)}
}

func (b *optionValueBuffer) SetContent(s string) {
	b.bytes = []byte(s)
	b.length = len(s)
}

func (b *optionValueBuffer) Reset() {
	for i := 0; i < b.length; i++ {
		b.bytes[i] = 0
	}
	b.length = 0
}

func (b *optionValueBuffer) PrintContent() {
	fmt.Println("optionValueBuffer:", b.bytes[:b.length])
}

func (b *optionValueBuffer) Copy(src []byte) error {
	if len(src) > len(b.bytes) {
		return fmt.Errorf("rohc: option value of %d bytes exceeds buffer of %d: %w", len(src), len(b.bytes), ErrOptionArenaExhausted)
	}
	copy(b.bytes, src)
	b.length = len(src)
	return nil
}

func (b *optionValueBuffer) GetSlice() []byte {
	return b.bytes[:b.length]
}
