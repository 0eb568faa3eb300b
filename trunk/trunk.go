package trunk

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/grove/encode"
)

// ScratchSize is the amount of per-thread scratch memory the engine needs;
// key encoding and message staging happen in the caller's scratch slot.
const ScratchSize = 4096

var (
	ErrClosed = errors.New("trunk: trunk is closed")
)

// DataHooks is the data configuration the engine is parameterized over.
// All keys are physical: fixed-width, length-prefixed slots. The façade
// installs trampolines that translate to the application's logical keys.
type DataHooks struct {
	KeySize int // physical key slot width

	// MinKey and MaxKey are encoded sentinels bounding the key space.
	MinKey []byte
	MaxKey []byte

	Compare func(a, b []byte) int
	Hash    func(key []byte) uint32

	// MergePartial folds the older message oldMsg into acc, which holds a
	// newer message. MergeFinal resolves acc when it still holds an update
	// and there is nothing older. Both nil means updates are not merged;
	// the newest message wins.
	MergePartial func(key, oldMsg []byte, acc *MergeAccumulator) error
	MergeFinal   func(key []byte, acc *MergeAccumulator) error

	KeyString     func(key []byte) string
	MessageString func(msg []byte) string
}

// Config is the engine configuration derived by the façade from the store
// configuration.
type Config struct {
	Path                string
	CacheSize           int64
	MemtableCapacity    uint64
	Fanout              int
	MaxBranchesPerNode  int
	FilterIndexSize     int
	FilterRemainderSize int
	SyncWrites          bool
	Logger              *log.Logger
	Data                DataHooks
}

// Trunk is the storage core: a sorted map from physical keys to encoded
// messages. Insert routes by message class; delete messages become
// tombstones and update messages are resolved through the merge hooks.
type Trunk interface {
	Insert(key, msg []byte) error
	Lookup(key []byte, acc *MergeAccumulator) error

	// Range returns an iterator positioned at the first live key >= start,
	// or at the first live key when start is nil.
	Range(start []byte) (RangeIterator, error)

	Flush() error
	Close() error
}

// RangeIterator walks live keys in comparator order. Key and Message are
// valid only until the next call to Next or Close.
type RangeIterator interface {
	Valid() bool
	Next()
	Key() []byte
	Message() []byte
	Error() error
	Close() error
}

// resolve applies the final merge to an accumulator still holding an
// update message with no older message beneath it.
func resolve(hooks *DataHooks, key []byte, acc *MergeAccumulator) error {
	if !acc.Valid() || acc.Class() != encode.Update {
		return nil
	}
	if hooks.MergeFinal == nil {
		return nil
	}
	return hooks.MergeFinal(key, acc)
}

// mergeOlder folds the older message old into acc.
func mergeOlder(hooks *DataHooks, key, old []byte, acc *MergeAccumulator) error {
	if hooks.MergePartial == nil {
		// No merge capability: the newer message stands.
		return nil
	}
	return hooks.MergePartial(key, old, acc)
}
