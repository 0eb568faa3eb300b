package main

import (
	"os"

	"github.com/leftmike/grove/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
