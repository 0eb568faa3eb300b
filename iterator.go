package grove

import (
	"fmt"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/trunk"
)

// Iterator walks live keys in comparator order. An iterator belongs to a
// single thread and must be closed when done. The usual loop:
//
//	it, err := s.NewIterator(nil)
//	...
//	for ; it.Valid(); it.Next() {
//		key, value := it.Current()
//		...
//	}
//	err = it.Status()
type Iterator struct {
	it      trunk.RangeIterator
	lastErr error
	parent  *Store
}

// NewIterator returns an iterator positioned at the first key >= start,
// or at the first key in the store when start is nil.
func (s *Store) NewIterator(start []byte) (*Iterator, error) {
	var phys []byte
	if start != nil {
		err := s.validateKeyLength(start)
		if err != nil {
			return nil, err
		}

		phys = make([]byte, s.shim.physicalKeySize)
		err = encode.EncodeKey(phys, start)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArg, err)
		}
	}

	it, err := s.tr.Range(phys)
	if err != nil {
		if it != nil {
			it.Close()
		}
		return nil, storageError(err)
	}

	if s.cfg.UseStats {
		s.stats.rangeInit()
	}
	return &Iterator{it: it, parent: s}, nil
}

// Valid reports whether the iterator is positioned on a key. Once Valid
// returns false, check Status: a failed iterator and an exhausted one look
// the same here.
func (it *Iterator) Valid() bool {
	if it.lastErr != nil {
		return false
	}
	if !it.it.Valid() {
		it.lastErr = it.it.Error()
		return false
	}
	return true
}

// Next advances the iterator. Calling Next on an invalid iterator is a
// programming error.
func (it *Iterator) Next() {
	if !it.Valid() {
		panic("grove: Next called on invalid iterator")
	}
	it.it.Next()
}

// Current returns the key and value at the iterator's position. Both
// slices are borrowed and valid only until the next call to Next or
// Close.
func (it *Iterator) Current() ([]byte, []byte) {
	key := encode.DecodeKey(it.it.Key())
	value, err := encode.MessageValue(it.it.Message())
	if err != nil {
		panic(err.Error())
	}
	return key, value
}

// Status returns the error, if any, that stopped the iterator.
func (it *Iterator) Status() error {
	return it.lastErr
}

// Close releases the iterator.
func (it *Iterator) Close() {
	err := it.it.Close()
	if err != nil && it.parent != nil {
		it.parent.logger.Errorf("failed to close iterator: %s", err)
	}
}
