package grove

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/grove/flags"
)

const (
	EnginePebble = "pebble"
	EngineMemory = "memory"

	defaultPageSize        = 4096
	defaultExtentPages     = 128
	defaultIOFlags         = os.O_RDWR | os.O_CREATE
	defaultIOPerms         = 0755
	defaultAsyncQueueDepth = 256

	defaultBtreeRoughCountHeight = 1
	defaultFilterIndexSize       = 256
	defaultFilterRemainderSize   = 6
	defaultMemtableCapacity      = 24 * 1024 * 1024
	defaultFanout                = 8
	defaultMaxBranchesPerNode    = 24
)

// Config collects everything needed to create or open a store. Filename,
// CacheSize, DiskSize, and Data are required; zero-valued tuning fields
// get defaults when the store is opened.
type Config struct {
	// Filename is the store directory.
	Filename  string
	CacheSize int64
	DiskSize  int64

	PageSize        uint64
	ExtentSize      uint64
	IOFlags         int
	IOPerms         os.FileMode
	AsyncQueueDepth int

	MemtableCapacity      uint64
	Fanout                int
	MaxBranchesPerNode    int
	BtreeRoughCountHeight int
	FilterIndexSize       int
	FilterRemainderSize   int
	ReclaimThreshold      uint64

	UseLog     bool
	UseStats   bool
	SyncWrites bool

	// Engine selects the storage core: EnginePebble (default) persists to
	// Filename; EngineMemory is ephemeral.
	Engine string

	Flags  flags.Flags
	Logger *log.Logger

	Data *DataConfig
}

func (cfg *Config) setDefaults() {
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.ExtentSize == 0 {
		cfg.ExtentSize = defaultExtentPages * cfg.PageSize
	}
	if cfg.IOFlags == 0 {
		cfg.IOFlags = defaultIOFlags
	}
	if cfg.IOPerms == 0 {
		cfg.IOPerms = defaultIOPerms
	}
	if cfg.AsyncQueueDepth == 0 {
		cfg.AsyncQueueDepth = defaultAsyncQueueDepth
	}
	if cfg.BtreeRoughCountHeight == 0 {
		cfg.BtreeRoughCountHeight = defaultBtreeRoughCountHeight
	}
	if cfg.FilterIndexSize == 0 {
		cfg.FilterIndexSize = defaultFilterIndexSize
	}
	if cfg.FilterRemainderSize == 0 {
		cfg.FilterRemainderSize = defaultFilterRemainderSize
	}
	if cfg.MemtableCapacity == 0 {
		cfg.MemtableCapacity = defaultMemtableCapacity
	}
	if cfg.Fanout == 0 {
		cfg.Fanout = defaultFanout
	}
	if cfg.MaxBranchesPerNode == 0 {
		cfg.MaxBranchesPerNode = defaultMaxBranchesPerNode
	}
	if cfg.ReclaimThreshold == 0 {
		// Proactive reclamation is disabled unless asked for.
		cfg.ReclaimThreshold = ^uint64(0)
	}
	if cfg.Engine == "" {
		cfg.Engine = EnginePebble
	}
	if cfg.Flags == nil {
		cfg.Flags = flags.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
}

func powerOfTwo(u uint64) bool {
	return u != 0 && u&(u-1) == 0
}

func (cfg *Config) validateGeometry() error {
	if !powerOfTwo(cfg.PageSize) {
		return fmt.Errorf("%w: page size %d must be a power of two", ErrBadParam, cfg.PageSize)
	}
	if cfg.ExtentSize < cfg.PageSize {
		return fmt.Errorf("%w: extent size %d must be at least page size %d", ErrBadParam,
			cfg.ExtentSize, cfg.PageSize)
	}
	if !powerOfTwo(cfg.ExtentSize / cfg.PageSize) {
		return fmt.Errorf("%w: extent size %d must be a power of two multiple of page size %d",
			ErrBadParam, cfg.ExtentSize, cfg.PageSize)
	}
	if cfg.Engine != EnginePebble && cfg.Engine != EngineMemory {
		return fmt.Errorf("%w: unknown engine %q", ErrBadParam, cfg.Engine)
	}
	return nil
}
