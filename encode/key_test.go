package encode_test

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"

	"github.com/leftmike/grove/encode"
)

func TestEncodeKey(t *testing.T) {
	cases := []struct {
		key []byte
	}{
		{key: nil},
		{key: []byte{}},
		{key: []byte("a")},
		{key: []byte("apple")},
		{key: []byte{0, 0, 0}},
		{key: bytes.Repeat([]byte{0xFF}, 64)},
		{key: bytes.Repeat([]byte("k"), encode.MaxKeyLength)},
	}

	slot := make([]byte, encode.PhysicalKeySize(encode.MaxKeyLength))
	for _, c := range cases {
		err := encode.EncodeKey(slot, c.key)
		if err != nil {
			t.Errorf("EncodeKey(%v) failed with %s", c.key, err)
			continue
		}
		if int(slot[0]) != len(c.key) {
			t.Errorf("EncodeKey(%v): length header %d want %d", c.key, slot[0], len(c.key))
		}
		got := encode.DecodeKey(slot)
		if !bytes.Equal(got, c.key) {
			t.Errorf("DecodeKey(EncodeKey(%v)) got %v", c.key, got)
		}
	}
}

func TestEncodeKeyZeroFill(t *testing.T) {
	slot := make([]byte, encode.PhysicalKeySize(16))
	for idx := range slot {
		slot[idx] = 0xAA
	}

	err := encode.EncodeKey(slot, []byte("ab"))
	if err != nil {
		t.Fatalf("EncodeKey failed with %s", err)
	}
	for idx := 3; idx < len(slot); idx += 1 {
		if slot[idx] != 0 {
			t.Fatalf("EncodeKey left stale byte %#x at %d", slot[idx], idx)
		}
	}
}

func TestEncodeKeyTooLong(t *testing.T) {
	slot := make([]byte, encode.PhysicalKeySize(8))
	for idx := range slot {
		slot[idx] = 0xAA
	}

	err := encode.EncodeKey(slot, []byte("abcdefghi"))
	if err == nil {
		t.Error("EncodeKey(9 byte key into 8 byte slot) did not fail")
	}

	big := make([]byte, encode.MaxKeyLength+1)
	bigSlot := make([]byte, encode.PhysicalKeySize(encode.MaxKeyLength))
	err = encode.EncodeKey(bigSlot, big)
	if err == nil {
		t.Error("EncodeKey(over-length key) did not fail")
	}
}

func TestDecodeKeyForged(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("DecodeKey(forged length) did not panic")
		}
	}()

	enc := make([]byte, 8)
	enc[0] = 200
	encode.DecodeKey(enc)
}

func TestKeyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keySize := rapid.IntRange(encode.MinKeySize, encode.MaxKeyLength).Draw(t, "keySize")
		key := rapid.SliceOfN(rapid.Byte(), 0, keySize).Draw(t, "key")

		slot := make([]byte, encode.PhysicalKeySize(keySize))
		err := encode.EncodeKey(slot, key)
		if err != nil {
			t.Fatalf("EncodeKey(%v) failed with %s", key, err)
		}
		if !bytes.Equal(encode.DecodeKey(slot), key) {
			t.Fatalf("DecodeKey(EncodeKey(%v)) got %v", key, encode.DecodeKey(slot))
		}
	})
}
