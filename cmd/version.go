package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leftmike/grove"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(grove.Version())
		},
	}
)

func init() {
	groveCmd.AddCommand(versionCmd)
}
