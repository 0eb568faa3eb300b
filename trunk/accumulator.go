package trunk

import (
	"github.com/leftmike/grove/encode"
)

// MergeAccumulator is a growable byte buffer holding a single encoded
// message. It may be constructed over a caller-owned scratch region; when
// a message outgrows that region the accumulator reallocates internally.
// An empty accumulator holds no message and reports Valid() == false.
type MergeAccumulator struct {
	buf []byte
}

// InitWithBuffer binds a caller-owned scratch buffer. The buffer may have
// length zero. Any previously held message is discarded.
func (ma *MergeAccumulator) InitWithBuffer(buf []byte) {
	ma.buf = buf[:0]
}

// Deinit releases any storage the accumulator grew beyond the bound
// scratch region. The accumulator must be reinitialized before reuse.
func (ma *MergeAccumulator) Deinit() {
	ma.buf = nil
}

// Reset discards the held message but keeps the underlying storage.
func (ma *MergeAccumulator) Reset() {
	ma.buf = ma.buf[:0]
}

// SetMessage copies an encoded message into the accumulator, growing the
// buffer as needed.
func (ma *MergeAccumulator) SetMessage(msg []byte) {
	ma.buf = append(ma.buf[:0], msg...)
}

// Valid reports whether the accumulator holds a message.
func (ma *MergeAccumulator) Valid() bool {
	return len(ma.buf) > 0
}

// Class returns the type of the held message.
func (ma *MergeAccumulator) Class() encode.MessageType {
	return encode.MessageClass(ma.buf)
}

// Message returns the held encoded message; it aliases the accumulator's
// buffer and is valid until the next mutation.
func (ma *MergeAccumulator) Message() []byte {
	return ma.buf
}

// Value returns the value portion of the held message.
func (ma *MergeAccumulator) Value() []byte {
	val, err := encode.MessageValue(ma.buf)
	if err != nil {
		panic(err.Error())
	}
	return val
}
