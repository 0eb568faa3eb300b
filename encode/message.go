package encode

import (
	"fmt"
)

// Values are stored as messages: a one byte message type followed by the
// raw value bytes. The type codes are stable for the lifetime of a store.
type MessageType byte

const (
	Insert MessageType = 1
	Delete MessageType = 2
	Update MessageType = 3

	MessageHeaderSize = 1
)

func (mt MessageType) String() string {
	switch mt {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Update:
		return "update"
	}
	return fmt.Sprintf("MessageType(%d)", byte(mt))
}

// EncodeMessage writes a message of type mt carrying value into dst and
// returns the encoded length.
func EncodeMessage(dst []byte, mt MessageType, value []byte) (int, error) {
	if MessageHeaderSize+len(value) > len(dst) {
		return 0, fmt.Errorf("encode: value length %d plus header exceeds buffer size %d",
			len(value), len(dst))
	}
	dst[0] = byte(mt)
	copy(dst[MessageHeaderSize:], value)
	return MessageHeaderSize + len(value), nil
}

// AppendMessage appends a message of type mt carrying value to buf.
func AppendMessage(buf []byte, mt MessageType, value []byte) []byte {
	buf = append(buf, byte(mt))
	return append(buf, value...)
}

// MessageValue returns the value carried by an encoded message. The result
// aliases msg.
func MessageValue(msg []byte) ([]byte, error) {
	if len(msg) < MessageHeaderSize {
		return nil, fmt.Errorf("encode: message of %d bytes is shorter than header", len(msg))
	}
	return msg[MessageHeaderSize:], nil
}

// MessageClass returns the type of an encoded message. Unknown type codes
// are a programming error.
func MessageClass(msg []byte) MessageType {
	if len(msg) < MessageHeaderSize {
		panic(fmt.Sprintf("encode: message of %d bytes is shorter than header", len(msg)))
	}
	switch mt := MessageType(msg[0]); mt {
	case Insert, Delete, Update:
		return mt
	}
	panic(fmt.Sprintf("encode: unknown message type: %d", msg[0]))
}
