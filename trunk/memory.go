package trunk

import (
	"sync"

	"github.com/google/btree"

	"github.com/leftmike/grove/encode"
)

// memTrunk is an ephemeral storage core backed by an in-memory btree. It
// honors the same message semantics as the persistent trunk and is used
// for throwaway stores and tests.
type memTrunk struct {
	mutex  sync.RWMutex
	tr     *btree.BTree
	hooks  DataHooks
	closed bool
}

type memItem struct {
	key []byte
	msg []byte
	cmp func(a, b []byte) int
}

func (mi *memItem) Less(than btree.Item) bool {
	return mi.cmp(mi.key, than.(*memItem).key) < 0
}

type memEntry struct {
	key []byte
	msg []byte
}

type memIterator struct {
	entries []memEntry
	idx     int
}

func MakeMemoryTrunk(cfg Config) (Trunk, error) {
	return &memTrunk{
		tr:    btree.New(8),
		hooks: cfg.Data,
	}, nil
}

func (mt *memTrunk) find(key []byte) *memItem {
	item := mt.tr.Get(&memItem{key: key, cmp: mt.hooks.Compare})
	if item == nil {
		return nil
	}
	return item.(*memItem)
}

func (mt *memTrunk) Insert(key, msg []byte) error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()

	if mt.closed {
		return ErrClosed
	}

	key = append(make([]byte, 0, len(key)), key...)

	switch encode.MessageClass(msg) {
	case encode.Insert:
		mt.tr.ReplaceOrInsert(&memItem{
			key: key,
			msg: append(make([]byte, 0, len(msg)), msg...),
			cmp: mt.hooks.Compare,
		})
	case encode.Delete:
		mt.tr.Delete(&memItem{key: key, cmp: mt.hooks.Compare})
	case encode.Update:
		var acc MergeAccumulator
		acc.InitWithBuffer(nil)
		acc.SetMessage(msg)

		if old := mt.find(key); old != nil {
			err := mergeOlder(&mt.hooks, key, old.msg, &acc)
			if err != nil {
				return err
			}
		}
		if acc.Valid() && acc.Class() == encode.Delete {
			mt.tr.Delete(&memItem{key: key, cmp: mt.hooks.Compare})
			break
		}
		mt.tr.ReplaceOrInsert(&memItem{
			key: key,
			msg: append(make([]byte, 0, len(acc.Message())), acc.Message()...),
			cmp: mt.hooks.Compare,
		})
	}
	return nil
}

func (mt *memTrunk) Lookup(key []byte, acc *MergeAccumulator) error {
	mt.mutex.RLock()
	defer mt.mutex.RUnlock()

	if mt.closed {
		return ErrClosed
	}

	item := mt.find(key)
	if item == nil {
		acc.Reset()
		return nil
	}

	acc.SetMessage(item.msg)
	return resolve(&mt.hooks, key, acc)
}

func (mt *memTrunk) Range(start []byte) (RangeIterator, error) {
	mt.mutex.RLock()
	defer mt.mutex.RUnlock()

	if mt.closed {
		return nil, ErrClosed
	}

	mit := &memIterator{}

	var walkErr error
	walk := func(item btree.Item) bool {
		mi := item.(*memItem)

		var acc MergeAccumulator
		acc.InitWithBuffer(nil)
		acc.SetMessage(mi.msg)
		walkErr = resolve(&mt.hooks, mi.key, &acc)
		if walkErr != nil {
			return false
		}
		if acc.Class() == encode.Delete {
			return true
		}

		mit.entries = append(mit.entries, memEntry{
			key: mi.key,
			msg: append(make([]byte, 0, len(acc.Message())), acc.Message()...),
		})
		return true
	}

	if start == nil {
		mt.tr.Ascend(walk)
	} else {
		mt.tr.AscendGreaterOrEqual(&memItem{key: start, cmp: mt.hooks.Compare}, walk)
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return mit, nil
}

func (mit *memIterator) Valid() bool {
	return mit.idx < len(mit.entries)
}

func (mit *memIterator) Next() {
	mit.idx += 1
}

func (mit *memIterator) Key() []byte {
	return mit.entries[mit.idx].key
}

func (mit *memIterator) Message() []byte {
	return mit.entries[mit.idx].msg
}

func (mit *memIterator) Error() error {
	return nil
}

func (mit *memIterator) Close() error {
	mit.entries = nil
	mit.idx = 0
	return nil
}

func (mt *memTrunk) Flush() error {
	return nil
}

func (mt *memTrunk) Close() error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()

	if mt.closed {
		return ErrClosed
	}
	mt.closed = true
	mt.tr = nil
	return nil
}
