// Package config loads store configuration from HCL files for the CLI.
// Fields left out of the file keep their zero values, so the store's own
// defaulting still applies.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl"

	"github.com/leftmike/grove"
	"github.com/leftmike/grove/flags"
)

func setInt64(cfg map[string]interface{}, name string, p *int64) error {
	val, ok := cfg[name]
	if !ok {
		return nil
	}
	delete(cfg, name)

	i, ok := val.(int)
	if !ok {
		return fmt.Errorf("%s: expected integer value; got %v", name, val)
	}
	*p = int64(i)
	return nil
}

func setUint64(cfg map[string]interface{}, name string, p *uint64) error {
	val, ok := cfg[name]
	if !ok {
		return nil
	}
	delete(cfg, name)

	i, ok := val.(int)
	if !ok || i < 0 {
		return fmt.Errorf("%s: expected non-negative integer value; got %v", name, val)
	}
	*p = uint64(i)
	return nil
}

func setInt(cfg map[string]interface{}, name string, p *int) error {
	val, ok := cfg[name]
	if !ok {
		return nil
	}
	delete(cfg, name)

	i, ok := val.(int)
	if !ok {
		return fmt.Errorf("%s: expected integer value; got %v", name, val)
	}
	*p = i
	return nil
}

func setString(cfg map[string]interface{}, name string, p *string) error {
	val, ok := cfg[name]
	if !ok {
		return nil
	}
	delete(cfg, name)

	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("%s: expected string value; got %v", name, val)
	}
	*p = s
	return nil
}

func setBool(cfg map[string]interface{}, name string, p *bool) error {
	val, ok := cfg[name]
	if !ok {
		return nil
	}
	delete(cfg, name)

	b, ok := val.(bool)
	if !ok {
		return fmt.Errorf("%s: expected boolean value; got %v", name, val)
	}
	*p = b
	return nil
}

// Parse decodes HCL bytes into cfg. Unknown names are an error, except
// for trace flag names which toggle cfg.Flags.
func Parse(b []byte, cfg *grove.Config) error {
	var vals map[string]interface{}

	err := hcl.Decode(&vals, string(b))
	if err != nil {
		return err
	}

	for _, set := range []func() error{
		func() error { return setString(vals, "filename", &cfg.Filename) },
		func() error { return setInt64(vals, "cache_size", &cfg.CacheSize) },
		func() error { return setInt64(vals, "disk_size", &cfg.DiskSize) },
		func() error { return setUint64(vals, "page_size", &cfg.PageSize) },
		func() error { return setUint64(vals, "extent_size", &cfg.ExtentSize) },
		func() error { return setInt(vals, "async_queue_depth", &cfg.AsyncQueueDepth) },
		func() error { return setUint64(vals, "memtable_capacity", &cfg.MemtableCapacity) },
		func() error { return setInt(vals, "fanout", &cfg.Fanout) },
		func() error { return setInt(vals, "max_branches_per_node", &cfg.MaxBranchesPerNode) },
		func() error {
			return setInt(vals, "btree_rough_count_height", &cfg.BtreeRoughCountHeight)
		},
		func() error { return setInt(vals, "filter_index_size", &cfg.FilterIndexSize) },
		func() error { return setInt(vals, "filter_remainder_size", &cfg.FilterRemainderSize) },
		func() error { return setUint64(vals, "reclaim_threshold", &cfg.ReclaimThreshold) },
		func() error { return setBool(vals, "use_log", &cfg.UseLog) },
		func() error { return setBool(vals, "use_stats", &cfg.UseStats) },
		func() error { return setBool(vals, "sync_writes", &cfg.SyncWrites) },
		func() error { return setString(vals, "engine", &cfg.Engine) },
	} {
		err = set()
		if err != nil {
			return err
		}
	}

	for name, val := range vals {
		f, ok := flags.LookupFlag(name)
		if !ok {
			return fmt.Errorf("%s is not a config variable", name)
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("%s: expected boolean value; got %v", name, val)
		}
		if cfg.Flags == nil {
			cfg.Flags = flags.Default()
		}
		cfg.Flags.SetFlag(f, b)
	}

	return nil
}

// Load reads an HCL config file into cfg.
func Load(filename string, cfg *grove.Config) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	err = Parse(b, cfg)
	if err != nil {
		return fmt.Errorf("%s: %s", filename, err)
	}
	return nil
}
