package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	groveCmd = &cobra.Command{
		Use:               "grove",
		Short:             "An embedded key-value store",
		Long:              "Grove is an embedded key-value store with variable-length keys.",
		PersistentPreRunE: grovePreRun,
		PersistentPostRun: grovePostRun,
	}

	logFile   = "grove.log"
	logLevel  = "info"
	logStderr = false
	logWriter io.WriteCloser
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	fs := groveCmd.PersistentFlags()

	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging")
	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	fs.BoolVarP(&logStderr, "log-stderr", "s", logStderr, "log to standard error")
}

func Execute() error {
	return groveCmd.Execute()
}

func grovePreRun(cmd *cobra.Command, args []string) error {
	if !logStderr && logFile != "" {
		var err error
		logWriter, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logWriter = nil
			return fmt.Errorf("grove: %s", err)
		}
		log.SetOutput(logWriter)
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("grove: %s", err)
	}
	log.SetLevel(ll)

	log.WithField("pid", os.Getpid()).Info("grove starting")
	return nil
}

func grovePostRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("grove done")

	if logWriter != nil {
		logWriter.Close()
	}
}
