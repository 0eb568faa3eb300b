package grove

import (
	"fmt"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/trunk"
)

// shimConfig presents a fixed-width key world to the engine on behalf of
// an application data configuration that thinks in variable-length keys.
// Each engine callback strips the length prefix from the physical key and
// forwards the logical key to the application. The shim borrows the
// DataConfig; it must outlive the store.
type shimConfig struct {
	app             *DataConfig
	physicalKeySize int

	// Encoded sentinels handed to the engine.
	minKey []byte
	maxKey []byte
}

func newShimConfig(app *DataConfig) (*shimConfig, error) {
	sc := &shimConfig{
		app:             app,
		physicalKeySize: encode.PhysicalKeySize(app.KeySize),
	}

	sc.minKey = make([]byte, sc.physicalKeySize)
	err := encode.EncodeKey(sc.minKey, app.MinKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadParam, err)
	}

	sc.maxKey = make([]byte, sc.physicalKeySize)
	err = encode.EncodeKey(sc.maxKey, app.MaxKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadParam, err)
	}
	return sc, nil
}

func (sc *shimConfig) compare(a, b []byte) int {
	return sc.app.Compare(encode.DecodeKey(a), encode.DecodeKey(b))
}

// hash decodes before hashing so that the header and padding bytes of the
// physical key never contribute to the hash.
func (sc *shimConfig) hash(key []byte) uint32 {
	return sc.app.Hash(encode.DecodeKey(key))
}

func (sc *shimConfig) keyString(key []byte) string {
	return sc.app.KeyString(encode.DecodeKey(key))
}

func (sc *shimConfig) mergePartial(key, oldMsg []byte, acc *trunk.MergeAccumulator) error {
	return sc.app.MergePartial(encode.DecodeKey(key), oldMsg, acc)
}

func (sc *shimConfig) mergeFinal(key []byte, acc *trunk.MergeAccumulator) error {
	return sc.app.MergeFinal(encode.DecodeKey(key), acc)
}

// hooks builds the data configuration the engine sees: fixed-width keys,
// encoded sentinels, and trampolines into the application callbacks.
func (sc *shimConfig) hooks() trunk.DataHooks {
	hooks := trunk.DataHooks{
		KeySize:       sc.physicalKeySize,
		MinKey:        sc.minKey,
		MaxKey:        sc.maxKey,
		Compare:       sc.compare,
		Hash:          sc.hash,
		KeyString:     sc.keyString,
		MessageString: sc.app.MessageString,
	}
	if sc.app.canMerge() {
		hooks.MergePartial = sc.mergePartial
		hooks.MergeFinal = sc.mergeFinal
	}
	return hooks
}
