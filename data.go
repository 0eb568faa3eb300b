package grove

import (
	"fmt"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/trunk"
)

// DataConfig is the application supplied capability set defining key and
// value semantics: comparison, hashing, merge behavior, and debug
// formatting. A DataConfig is immutable once a store is opened with it and
// must outlive the store; the store borrows it.
//
// All callbacks receive logical keys: the bytes the application thinks of
// as the key, without any engine framing.
type DataConfig struct {
	// KeySize is the largest logical key, in bytes, this store accepts.
	KeySize int

	// MinKey and MaxKey bound the key space under Compare. MinKey may be
	// empty; MaxKey must not be. Keys inserted outside [MinKey, MaxKey]
	// are rejected.
	MinKey []byte
	MaxKey []byte

	Compare func(a, b []byte) int
	Hash    func(key []byte) uint32

	// MergePartial folds the older message oldMsg into acc, which holds a
	// newer message for the same key. MergeFinal resolves acc when it
	// holds an update with nothing older beneath it. Configs that leave
	// both nil carry no merge capability and reject Update.
	MergePartial func(key, oldMsg []byte, acc *trunk.MergeAccumulator) error
	MergeFinal   func(key []byte, acc *trunk.MergeAccumulator) error

	KeyString     func(key []byte) string
	MessageString func(msg []byte) string
}

func (dc *DataConfig) canMerge() bool {
	return dc.MergePartial != nil
}

func (dc *DataConfig) validate() error {
	if dc == nil {
		return fmt.Errorf("%w: missing data configuration", ErrBadParam)
	}
	if dc.KeySize <= 0 || dc.KeySize > encode.MaxKeyLength {
		return fmt.Errorf("%w: key size %d must be in (0, %d]", ErrBadParam, dc.KeySize,
			encode.MaxKeyLength)
	}
	if dc.KeySize < encode.MinKeySize {
		return fmt.Errorf("%w: key size %d is below the engine minimum %d", ErrBadParam,
			dc.KeySize, encode.MinKeySize)
	}
	if dc.Compare == nil || dc.Hash == nil || dc.KeyString == nil || dc.MessageString == nil {
		return fmt.Errorf("%w: data configuration is missing a callback", ErrBadParam)
	}
	if (dc.MergePartial == nil) != (dc.MergeFinal == nil) {
		return fmt.Errorf("%w: merge callbacks must be provided together", ErrBadParam)
	}
	if len(dc.MaxKey) == 0 {
		return fmt.Errorf("%w: length of maximum key must be positive", ErrBadParam)
	}
	if len(dc.MinKey) > dc.KeySize {
		return fmt.Errorf("%w: length of minimum key %d cannot exceed key size %d",
			ErrBadParam, len(dc.MinKey), dc.KeySize)
	}
	if len(dc.MaxKey) > dc.KeySize {
		return fmt.Errorf("%w: length of maximum key %d cannot exceed key size %d",
			ErrBadParam, len(dc.MaxKey), dc.KeySize)
	}
	if dc.Compare(dc.MinKey, dc.MaxKey) >= 0 {
		return fmt.Errorf("%w: minimum key must compare below maximum key", ErrBadParam)
	}
	return nil
}
