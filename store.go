// Package grove is an embedded key-value store. Applications bind a
// DataConfig describing their key and value semantics, open a Store, and
// use point operations and range iterators; keys are variable-length up
// to the configured key size.
package grove

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/flags"
	"github.com/leftmike/grove/manifest"
	"github.com/leftmike/grove/shardlog"
	"github.com/leftmike/grove/task"
	"github.com/leftmike/grove/trunk"
)

const (
	trunkRootID = 1

	manifestFile = "MANIFEST"
	trunkDir     = "trunk"
	shardLogDir  = "log"
)

var (
	// The delete message carries no value; one sentinel serves all keys.
	deleteMessage = []byte{byte(encode.Delete)}
)

// Store is an open key-value store. A Store exclusively owns its
// subsystems (manifest, cache, storage core, shard log, task system); the
// DataConfig it was opened with is borrowed and must stay alive until
// Close. Lifecycle is one way: opened, then closed.
type Store struct {
	cfg    Config
	shim   *shimConfig
	tasks  *task.System
	man    *manifest.Manifest
	cache  *trunk.Cache
	tr     trunk.Trunk
	slog   *shardlog.Log
	logger *log.Logger
	stats  storeStats

	mutex  sync.Mutex
	closed bool
}

// Create initializes a new store at cfg.Filename. It fails if a store is
// already present there.
func Create(cfg *Config) (*Store, error) {
	return openStore(cfg, false)
}

// Open mounts an existing store at cfg.Filename, validating that cfg is
// compatible with the store's superblock.
func Open(cfg *Config) (*Store, error) {
	return openStore(cfg, true)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %s", ErrStorage, err)
}

func openStore(cfg *Config, openExisting bool) (*Store, error) {
	err := cfg.Data.validate()
	if err != nil {
		return nil, err
	}
	if cfg.Filename == "" || cfg.CacheSize == 0 || cfg.DiskSize == 0 {
		return nil, fmt.Errorf("%w: filename, cache size, and disk size must be set",
			ErrBadParam)
	}

	s := &Store{cfg: *cfg}
	s.cfg.setDefaults()
	s.logger = s.cfg.Logger

	err = s.cfg.validateGeometry()
	if err != nil {
		return nil, err
	}

	s.shim, err = newShimConfig(cfg.Data)
	if err != nil {
		return nil, err
	}

	// Each acquired subsystem registers its release; any failure below
	// unwinds the acquired prefix in reverse order.
	var undo []func()
	fail := func(err error) (*Store, error) {
		for idx := len(undo) - 1; idx >= 0; idx -= 1 {
			undo[idx]()
		}
		return nil, err
	}

	err = os.MkdirAll(s.cfg.Filename, s.cfg.IOPerms)
	if err != nil {
		return fail(storageError(err))
	}

	s.tasks = task.NewSystem(trunk.ScratchSize, s.logger)
	undo = append(undo, s.tasks.Destroy)

	meta := manifest.Meta{
		Engine:     s.cfg.Engine,
		PageSize:   s.cfg.PageSize,
		ExtentSize: s.cfg.ExtentSize,
		DiskSize:   uint64(s.cfg.DiskSize),
		KeySize:    uint64(s.cfg.Data.KeySize),
		RootID:     trunkRootID,
		MinKey:     s.shim.minKey,
		MaxKey:     s.shim.maxKey,
	}
	manPath := filepath.Join(s.cfg.Filename, manifestFile)
	if openExisting {
		s.man, err = manifest.Mount(manPath, meta)
	} else {
		s.man, err = manifest.Create(manPath, meta)
	}
	if err != nil {
		s.logger.WithField("path", manPath).Errorf("failed to %s store superblock: %s",
			mountVerb(openExisting), err)
		return fail(storageError(err))
	}
	undo = append(undo, func() { s.man.Close() })

	s.cache = trunk.NewCache(s.cfg.CacheSize)
	undo = append(undo, s.cache.Release)

	tcfg := trunk.Config{
		Path:                filepath.Join(s.cfg.Filename, trunkDir),
		CacheSize:           s.cfg.CacheSize,
		MemtableCapacity:    s.cfg.MemtableCapacity,
		Fanout:              s.cfg.Fanout,
		MaxBranchesPerNode:  s.cfg.MaxBranchesPerNode,
		FilterIndexSize:     s.cfg.FilterIndexSize,
		FilterRemainderSize: s.cfg.FilterRemainderSize,
		SyncWrites:          s.cfg.SyncWrites,
		Logger:              s.logger,
		Data:                s.shim.hooks(),
	}
	switch s.cfg.Engine {
	case EnginePebble:
		s.tr, err = trunk.MakePebbleTrunk(tcfg, s.cache)
	case EngineMemory:
		s.tr, err = trunk.MakeMemoryTrunk(tcfg)
	}
	if err != nil {
		s.logger.WithField("path", tcfg.Path).Errorf("failed to %s storage core: %s",
			mountVerb(openExisting), err)
		return fail(storageError(err))
	}
	if s.tr == nil {
		return fail(fmt.Errorf("%w: failed to %s storage core", ErrInvalidState,
			mountVerb(openExisting)))
	}
	undo = append(undo, func() { s.tr.Close() })

	if s.cfg.UseLog {
		s.slog, err = shardlog.Open(filepath.Join(s.cfg.Filename, shardLogDir),
			s.cfg.SyncWrites, s.logger)
		if err != nil {
			s.logger.Errorf("failed to open shard log: %s", err)
			return fail(storageError(err))
		}
		undo = append(undo, func() { s.slog.Close() })
	}

	s.tasks.Register()

	s.logger.WithFields(log.Fields{
		"path":   s.cfg.Filename,
		"engine": s.cfg.Engine,
	}).Infof("successfully %s grove store", pastVerb(openExisting))
	return s, nil
}

func mountVerb(openExisting bool) string {
	if openExisting {
		return "mount existing"
	}
	return "initialize"
}

func pastVerb(openExisting bool) string {
	if openExisting {
		return "mounted existing"
	}
	return "created new"
}

// Close flushes and releases every subsystem in reverse order of
// acquisition. Close is best effort; problems surface in the log, not as
// return values. Closing an already closed store is a no-op. No operation
// may be in flight when Close is called.
func (s *Store) Close() {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	s.mutex.Unlock()

	if s.slog != nil {
		err := s.slog.Close()
		if err != nil {
			s.logger.Errorf("failed to close shard log: %s", err)
		}
	}

	err := s.tr.Close()
	if err != nil {
		s.logger.Errorf("failed to close storage core: %s", err)
	}

	s.cache.Release()

	err = s.man.Close()
	if err != nil {
		s.logger.Errorf("failed to close store superblock: %s", err)
	}

	if s.tasks.Registered() {
		s.tasks.Deregister()
	}
	s.tasks.Destroy()

	s.logger.WithField("path", s.cfg.Filename).Info("closed grove store")
}

// RegisterThread registers the calling thread with the store and hands it
// scratch memory. Any thread other than the one that opened the store must
// call RegisterThread exactly once before its first operation; the task
// system admits at most task.MaxThreads live threads.
func (s *Store) RegisterThread() {
	s.tasks.Register()
}

// DeregisterThread releases the calling thread's scratch memory. Call it
// before the thread exits; skipping it leaks the thread's slot.
func (s *Store) DeregisterThread() {
	s.tasks.Deregister()
}

func (s *Store) validateKeyLength(key []byte) error {
	if len(key) > s.cfg.Data.KeySize {
		return fmt.Errorf("%w: key of size %d exceeds configured key size %d", ErrInvalidArg,
			len(key), s.cfg.Data.KeySize)
	}
	return nil
}

// validateKeyInRange rejects keys outside [MinKey, MaxKey] under the
// application comparator.
func (s *Store) validateKeyInRange(key []byte) error {
	dc := s.cfg.Data
	if dc.Compare(dc.MinKey, key) > 0 {
		return fmt.Errorf("%w: key %s is less than configured minimum key %s", ErrInvalidArg,
			dc.KeyString(key), dc.KeyString(dc.MinKey))
	}
	if dc.Compare(key, dc.MaxKey) > 0 {
		return fmt.Errorf("%w: key %s is greater than configured maximum key %s",
			ErrInvalidArg, dc.KeyString(key), dc.KeyString(dc.MaxKey))
	}
	return nil
}

// encodeKey encodes key into the calling thread's scratch slot and returns
// the physical key. The result is valid until the thread's next operation.
func (s *Store) encodeKey(key []byte) ([]byte, error) {
	phys := s.tasks.Scratch()[:s.shim.physicalKeySize]
	err := encode.EncodeKey(phys, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArg, err)
	}
	return phys, nil
}

func (s *Store) insertMessage(key []byte, msg []byte) error {
	err := s.validateKeyLength(key)
	if err != nil {
		return err
	}
	err = s.validateKeyInRange(key)
	if err != nil {
		return err
	}

	phys, err := s.encodeKey(key)
	if err != nil {
		return err
	}

	class := encode.MessageClass(msg)
	if s.cfg.Flags.GetFlag(flags.TraceInserts) {
		s.logger.WithFields(log.Fields{
			"key": s.cfg.Data.KeyString(key),
			"op":  class.String(),
		}).Debug("insert message")
	}

	err = s.tr.Insert(phys, msg)
	if err != nil {
		return storageError(err)
	}

	if s.cfg.UseStats {
		s.stats.count(class)
	}
	if s.slog != nil {
		value, _ := encode.MessageValue(msg)
		_, err = s.slog.Append(class, key, value)
		if err != nil {
			return storageError(err)
		}
	}
	return nil
}

// Insert sets key to value, replacing any existing value.
func (s *Store) Insert(key, value []byte) error {
	return s.insertMessage(key, encode.AppendMessage(make([]byte, 0,
		encode.MessageHeaderSize+len(value)), encode.Insert, value))
}

// Delete removes key. Deleting an absent key succeeds.
func (s *Store) Delete(key []byte) error {
	return s.insertMessage(key, deleteMessage)
}

// Update applies delta to key's value through the data configuration's
// merge callbacks. A data configuration without merge capability rejects
// Update.
func (s *Store) Update(key, delta []byte) error {
	if !s.cfg.Data.canMerge() {
		return fmt.Errorf("%w: data configuration does not support update", ErrInvalidArg)
	}
	if s.cfg.Flags.GetFlag(flags.TraceMerges) {
		s.logger.WithField("key", s.cfg.Data.KeyString(key)).Debug("update")
	}
	return s.insertMessage(key, encode.AppendMessage(make([]byte, 0,
		encode.MessageHeaderSize+len(delta)), encode.Update, delta))
}

// Lookup finds key's value. The result must have been initialized with
// Init; a single result may be reused across lookups. Absence is not an
// error: check result.Found.
func (s *Store) Lookup(key []byte, result *LookupResult) error {
	err := s.validateKeyLength(key)
	if err != nil {
		return err
	}

	phys, err := s.encodeKey(key)
	if err != nil {
		return err
	}

	err = s.tr.Lookup(phys, &result.acc)
	if err != nil {
		return storageError(err)
	}

	found := result.Found()
	if s.cfg.Flags.GetFlag(flags.TraceLookups) {
		s.logger.WithFields(log.Fields{
			"key":   s.cfg.Data.KeyString(key),
			"found": found,
		}).Debug("lookup")
	}
	if s.cfg.UseStats {
		s.stats.lookup(found)
	}
	return nil
}

// Flush forces buffered writes in the storage core down to disk.
func (s *Store) Flush() error {
	err := s.tr.Flush()
	if err != nil {
		return storageError(err)
	}
	return nil
}
