package trunk

import (
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/leftmike/grove/encode"
)

// Cache is a handle to the engine's page cache. A cache may be shared by
// several trunks; Release drops this handle's reference.
type Cache struct {
	c *pebble.Cache
}

func NewCache(size int64) *Cache {
	return &Cache{c: pebble.NewCache(size)}
}

func (c *Cache) Release() {
	c.c.Unref()
}

type pebbleTrunk struct {
	mutex  sync.Mutex
	db     *pebble.DB
	hooks  DataHooks
	wo     *pebble.WriteOptions
	closed bool
}

type pebbleIterator struct {
	snap *pebble.Snapshot
	it   *pebble.Iterator
}

type pebbleMerger struct {
	hooks *DataHooks
	key   []byte
	acc   MergeAccumulator
}

func shimComparer(hooks *DataHooks) *pebble.Comparer {
	cmp := hooks.Compare
	return &pebble.Comparer{
		Compare: cmp,
		Equal: func(a, b []byte) bool {
			return cmp(a, b) == 0
		},
		AbbreviatedKey: func(key []byte) uint64 {
			// Keys are ordered by an application comparator, so no byte
			// prefix is guaranteed to respect that order.
			return 0
		},
		Separator: func(dst, a, b []byte) []byte {
			return append(dst, a...)
		},
		Successor: func(dst, a []byte) []byte {
			return append(dst, a...)
		},
		Split: func(key []byte) int {
			return len(key)
		},
		Name: "grove.shim",
	}
}

func shimMerger(hooks *DataHooks) *pebble.Merger {
	return &pebble.Merger{
		Merge: func(key, value []byte) (pebble.ValueMerger, error) {
			pm := &pebbleMerger{
				hooks: hooks,
				key:   append(make([]byte, 0, len(key)), key...),
			}
			pm.acc.InitWithBuffer(nil)
			pm.acc.SetMessage(value)
			return pm, nil
		},
		Name: "grove.merge",
	}
}

func (pm *pebbleMerger) MergeNewer(value []byte) error {
	var newer MergeAccumulator
	newer.InitWithBuffer(nil)
	newer.SetMessage(value)
	err := mergeOlder(pm.hooks, pm.key, pm.acc.Message(), &newer)
	if err != nil {
		return err
	}
	pm.acc = newer
	return nil
}

func (pm *pebbleMerger) MergeOlder(value []byte) error {
	return mergeOlder(pm.hooks, pm.key, value, &pm.acc)
}

func (pm *pebbleMerger) Finish(includesBase bool) ([]byte, io.Closer, error) {
	if includesBase {
		err := resolve(pm.hooks, pm.key, &pm.acc)
		if err != nil {
			return nil, nil, err
		}
	}
	return pm.acc.Message(), nil, nil
}

// MakePebbleTrunk creates or mounts the persistent storage core rooted at
// cfg.Path. The manifest decides create versus mount; the trunk itself
// opens whatever is there.
func MakePebbleTrunk(cfg Config, cache *Cache) (Trunk, error) {
	opts := &pebble.Options{
		Comparer:              shimComparer(&cfg.Data),
		Merger:                shimMerger(&cfg.Data),
		MemTableSize:          cfg.MemtableCapacity,
		L0CompactionThreshold: cfg.Fanout,
		L0StopWritesThreshold: cfg.MaxBranchesPerNode,
		Logger:                cfg.Logger,
	}
	if cache != nil {
		opts.Cache = cache.c
	}
	if cfg.FilterRemainderSize > 0 {
		opts.Levels = []pebble.LevelOptions{
			{FilterPolicy: bloom.FilterPolicy(cfg.FilterRemainderSize)},
		}
	}

	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("trunk: %s: %w", cfg.Path, err)
	}

	wo := pebble.NoSync
	if cfg.SyncWrites {
		wo = pebble.Sync
	}

	pt := &pebbleTrunk{
		db:    db,
		hooks: cfg.Data,
		wo:    wo,
	}
	return pt, nil
}

func (pt *pebbleTrunk) Insert(key, msg []byte) error {
	if pt.closed {
		return ErrClosed
	}

	switch encode.MessageClass(msg) {
	case encode.Insert:
		return pt.db.Set(key, msg, pt.wo)
	case encode.Delete:
		return pt.db.Delete(key, pt.wo)
	case encode.Update:
		return pt.db.Merge(key, msg, pt.wo)
	}
	return nil
}

func (pt *pebbleTrunk) Lookup(key []byte, acc *MergeAccumulator) error {
	if pt.closed {
		return ErrClosed
	}

	val, closer, err := pt.db.Get(key)
	if err == pebble.ErrNotFound {
		acc.Reset()
		return nil
	} else if err != nil {
		return err
	}
	defer closer.Close()

	acc.SetMessage(val)
	return nil
}

func (pt *pebbleTrunk) Range(start []byte) (RangeIterator, error) {
	if pt.closed {
		return nil, ErrClosed
	}

	var iopts pebble.IterOptions
	if start != nil {
		iopts.LowerBound = append(make([]byte, 0, len(start)), start...)
	}

	snap := pt.db.NewSnapshot()
	it, err := snap.NewIter(&iopts)
	if err != nil {
		snap.Close()
		return nil, err
	}
	it.First()

	pit := &pebbleIterator{
		snap: snap,
		it:   it,
	}
	pit.skipDeleted()
	return pit, nil
}

// skipDeleted steps over messages whose class is delete; a merge may
// produce one even though plain deletes are tombstones.
func (pit *pebbleIterator) skipDeleted() {
	for pit.it.Valid() && encode.MessageClass(pit.it.Value()) == encode.Delete {
		pit.it.Next()
	}
}

func (pit *pebbleIterator) Valid() bool {
	return pit.it.Valid()
}

func (pit *pebbleIterator) Next() {
	pit.it.Next()
	pit.skipDeleted()
}

func (pit *pebbleIterator) Key() []byte {
	return pit.it.Key()
}

func (pit *pebbleIterator) Message() []byte {
	return pit.it.Value()
}

func (pit *pebbleIterator) Error() error {
	return pit.it.Error()
}

func (pit *pebbleIterator) Close() error {
	err := pit.it.Close()
	if pit.snap != nil {
		pit.snap.Close()
	}
	return err
}

func (pt *pebbleTrunk) Flush() error {
	if pt.closed {
		return ErrClosed
	}
	return pt.db.Flush()
}

func (pt *pebbleTrunk) Close() error {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	if pt.closed {
		return ErrClosed
	}
	pt.closed = true
	return pt.db.Close()
}
