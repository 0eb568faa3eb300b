package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftmike/grove"
	"github.com/leftmike/grove/config"
	"github.com/leftmike/grove/repl"
)

var (
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Open a store and start an interactive shell",
		RunE:  shellRun,
	}

	dataDir    = "grovedata"
	engine     = grove.EnginePebble
	cacheSize  = int64(64 * 1024 * 1024)
	diskSize   = int64(1024 * 1024 * 1024)
	keySize    = 64
	useLog     = false
	useStats   = true
	createNew  = false
	configFile = ""
)

func initShellFlags(fs *pflag.FlagSet) {
	fs.StringVar(&dataDir, "data", dataDir, "`directory` containing the store")
	fs.StringVar(&engine, "engine", engine, "storage engine to use: pebble or memory")
	fs.Int64Var(&cacheSize, "cache-size", cacheSize, "cache size in bytes")
	fs.Int64Var(&diskSize, "disk-size", diskSize, "disk size in bytes")
	fs.IntVar(&keySize, "key-size", keySize, "maximum key length in bytes")
	fs.BoolVar(&useLog, "use-log", useLog, "journal mutations to the shard log")
	fs.BoolVar(&useStats, "use-stats", useStats, "collect operation statistics")
	fs.BoolVar(&createNew, "create", createNew, "create a new store instead of opening")
	fs.StringVar(&configFile, "config-file", configFile, "`file` to load store config from")
}

func init() {
	initShellFlags(shellCmd.Flags())
	groveCmd.AddCommand(shellCmd)
}

func shellRun(cmd *cobra.Command, args []string) error {
	cfg := grove.Config{
		Filename:  dataDir,
		CacheSize: cacheSize,
		DiskSize:  diskSize,
		UseLog:    useLog,
		UseStats:  useStats,
		Engine:    engine,
		Logger:    log.StandardLogger(),
		Data:      grove.DefaultDataConfig(keySize),
	}
	if configFile != "" {
		err := config.Load(configFile, &cfg)
		if err != nil {
			return fmt.Errorf("grove: %s", err)
		}
	}

	var s *grove.Store
	var err error
	if createNew {
		s, err = grove.Create(&cfg)
	} else {
		s, err = grove.Open(&cfg)
	}
	if err != nil {
		return fmt.Errorf("grove: %s", err)
	}
	defer s.Close()

	repl.Interact(s)
	return nil
}
