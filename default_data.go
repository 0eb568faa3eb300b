package grove

import (
	"bytes"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// DefaultDataConfig returns a data configuration suitable for simple
// key-value applications: lexicographic byte comparison, the full key
// space from the empty key to keySize 0xFF bytes, and hex formatting for
// debug strings.
//
// The default configuration carries no merge capability, so blind
// mutations are rejected: Update fails on a store opened with it.
func DefaultDataConfig(keySize int) *DataConfig {
	return &DataConfig{
		KeySize: keySize,
		MinKey:  nil,
		MaxKey:  bytes.Repeat([]byte{0xFF}, keySize),
		Compare: bytes.Compare,
		Hash: func(key []byte) uint32 {
			return uint32(xxhash.Sum64(key))
		},
		KeyString:     hex.EncodeToString,
		MessageString: hex.EncodeToString,
	}
}
