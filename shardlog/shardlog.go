// Package shardlog is a sequenced journal of store mutations. When a
// store is opened with logging enabled, every successful insert, delete,
// and update is appended here in commit order, for consumption by change
// feeds and offline tooling.
package shardlog

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dgraph-io/badger"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/grove/encode"
)

type Log struct {
	db  *badger.DB
	seq uint64
}

// Record is one journaled mutation. Key and Value are logical bytes.
type Record struct {
	Seq   uint64
	Op    encode.MessageType
	Key   []byte
	Value []byte
}

func Open(dir string, syncWrites bool, logger *log.Logger) (*Log, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(syncWrites).
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("shardlog: %s: %w", dir, err)
	}

	l := &Log{db: db}
	err = l.loadSeq()
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// loadSeq recovers the last assigned sequence number by looking at the
// final record in the journal.
func (l *Log) loadSeq() error {
	return l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
		if it.Valid() {
			key := it.Item().Key()
			if len(key) != 8 {
				return fmt.Errorf("shardlog: record key wrong length: %v", key)
			}
			l.seq = binary.BigEndian.Uint64(key)
		}
		return nil
	})
}

func encodeRecord(op encode.MessageType, key, value []byte) []byte {
	buf := make([]byte, 0, 2+len(key)+len(value))
	buf = append(buf, byte(op), byte(len(key)))
	buf = append(buf, key...)
	return append(buf, value...)
}

func decodeRecord(seq uint64, buf []byte) (Record, error) {
	if len(buf) < 2 {
		return Record{}, fmt.Errorf("shardlog: record %d too short: %d bytes", seq, len(buf))
	}
	op := encode.MessageType(buf[0])
	klen := int(buf[1])
	if 2+klen > len(buf) {
		return Record{}, fmt.Errorf("shardlog: record %d key length %d exceeds record size %d",
			seq, klen, len(buf))
	}
	return Record{
		Seq:   seq,
		Op:    op,
		Key:   buf[2 : 2+klen],
		Value: buf[2+klen:],
	}, nil
}

// Append journals one mutation and returns its sequence number.
func (l *Log) Append(op encode.MessageType, key, value []byte) (uint64, error) {
	seq := atomic.AddUint64(&l.seq, 1)

	var seqKey [8]byte
	binary.BigEndian.PutUint64(seqKey[:], seq)

	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey[:], encodeRecord(op, key, value))
	})
	if err != nil {
		return 0, fmt.Errorf("shardlog: append %d: %w", seq, err)
	}
	return seq, nil
}

// Scan calls fn for every record with sequence number >= from, in order.
// fn may return io.EOF to stop early.
func (l *Log) Scan(from uint64, fn func(Record) error) error {
	var fromKey [8]byte
	binary.BigEndian.PutUint64(fromKey[:], from)

	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(fromKey[:]); it.Valid(); it.Next() {
			item := it.Item()
			if len(item.Key()) != 8 {
				return fmt.Errorf("shardlog: record key wrong length: %v", item.Key())
			}
			seq := binary.BigEndian.Uint64(item.Key())

			err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(seq, val)
				if err != nil {
					return err
				}
				return fn(rec)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err == io.EOF {
		return nil
	}
	return err
}

// Seq returns the most recently assigned sequence number.
func (l *Log) Seq() uint64 {
	return atomic.LoadUint64(&l.seq)
}

func (l *Log) Close() error {
	return l.db.Close()
}
