// Package manifest stores a grove store's superblock: the identity and
// geometry that must match between the process that created a store and
// any process that later mounts it.
package manifest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"go.etcd.io/bbolt"
)

const FormatVersion = 1

var (
	superblockBucket = []byte("superblock")

	formatKey  = []byte("format")
	engineKey  = []byte("engine")
	pageKey    = []byte("page_size")
	extentKey  = []byte("extent_size")
	diskKey    = []byte("disk_size")
	keySizeKey = []byte("key_size")
	rootKey    = []byte("root_id")
	minKeyKey  = []byte("min_key")
	maxKeyKey  = []byte("max_key")

	ErrExists    = errors.New("manifest: store already exists")
	ErrNotExists = errors.New("manifest: store does not exist")
)

// Meta is the superblock contents. MinKey and MaxKey are the encoded
// sentinel keys; they fingerprint the data configuration so that a store
// cannot be mounted with an incompatible comparator domain.
type Meta struct {
	Engine     string
	PageSize   uint64
	ExtentSize uint64
	DiskSize   uint64
	KeySize    uint64
	RootID     uint64
	MinKey     []byte
	MaxKey     []byte
}

type Manifest struct {
	db   *bbolt.DB
	meta Meta
}

func encodeUint64(u uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	return buf[:]
}

func decodeUint64(val []byte) (uint64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("manifest: len(val) != 8: %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

// Create initializes the superblock at path. It fails if a superblock is
// already present.
func Create(path string, meta Meta) (*Manifest, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucket(superblockBucket)
		if err != nil {
			return err
		}

		for _, kv := range []struct {
			key []byte
			val []byte
		}{
			{formatKey, encodeUint64(FormatVersion)},
			{engineKey, []byte(meta.Engine)},
			{pageKey, encodeUint64(meta.PageSize)},
			{extentKey, encodeUint64(meta.ExtentSize)},
			{diskKey, encodeUint64(meta.DiskSize)},
			{keySizeKey, encodeUint64(meta.KeySize)},
			{rootKey, encodeUint64(meta.RootID)},
			{minKeyKey, meta.MinKey},
			{maxKeyKey, meta.MaxKey},
		} {
			err = bkt.Put(kv.key, kv.val)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	return &Manifest{db: db, meta: meta}, nil
}

// Mount opens an existing superblock and validates it against want. It
// fails if the superblock is missing or does not match.
func Mount(path string, want Meta) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotExists, path)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	var meta Meta
	err = db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(superblockBucket)
		if bkt == nil {
			return errors.New("missing superblock bucket")
		}

		format, err := decodeUint64(bkt.Get(formatKey))
		if err != nil {
			return err
		}
		if format != FormatVersion {
			return fmt.Errorf("format version %d; expected %d", format, FormatVersion)
		}

		meta.Engine = string(bkt.Get(engineKey))
		for _, fld := range []struct {
			key []byte
			val *uint64
		}{
			{pageKey, &meta.PageSize},
			{extentKey, &meta.ExtentSize},
			{diskKey, &meta.DiskSize},
			{keySizeKey, &meta.KeySize},
			{rootKey, &meta.RootID},
		} {
			*fld.val, err = decodeUint64(bkt.Get(fld.key))
			if err != nil {
				return err
			}
		}
		meta.MinKey = append([]byte(nil), bkt.Get(minKeyKey)...)
		meta.MaxKey = append([]byte(nil), bkt.Get(maxKeyKey)...)
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	err = check(meta, want)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	return &Manifest{db: db, meta: meta}, nil
}

func check(have, want Meta) error {
	if have.Engine != want.Engine {
		return fmt.Errorf("engine %q; expected %q", have.Engine, want.Engine)
	}
	if have.PageSize != want.PageSize {
		return fmt.Errorf("page size %d; expected %d", have.PageSize, want.PageSize)
	}
	if have.ExtentSize != want.ExtentSize {
		return fmt.Errorf("extent size %d; expected %d", have.ExtentSize, want.ExtentSize)
	}
	if have.KeySize != want.KeySize {
		return fmt.Errorf("key size %d; expected %d", have.KeySize, want.KeySize)
	}
	if have.RootID != want.RootID {
		return fmt.Errorf("root id %d; expected %d", have.RootID, want.RootID)
	}
	if !bytes.Equal(have.MinKey, want.MinKey) || !bytes.Equal(have.MaxKey, want.MaxKey) {
		return errors.New("data configuration fingerprint mismatch")
	}
	return nil
}

func (m *Manifest) Meta() Meta {
	return m.meta
}

func (m *Manifest) Close() error {
	return m.db.Close()
}
