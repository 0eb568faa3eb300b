package repl

import (
	"fmt"
	"os"

	"github.com/peterh/liner"

	"github.com/leftmike/grove"
)

const (
	groveHistory = ".grove_history"
)

// Interact runs the shell over s until exit or end of input, keeping line
// history in the user's home directory.
func Interact(s *grove.Store) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	history := groveHistory
	if home, err := os.UserHomeDir(); err == nil {
		history = home + string(os.PathSeparator) + groveHistory
	}

	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	for {
		input, err := line.Prompt("grove: ")
		if err != nil {
			break
		}
		line.AppendHistory(input)

		if Execute(s, input, os.Stdout) {
			break
		}
	}

	if f, err := os.Create(history); err != nil {
		fmt.Fprintf(os.Stderr, "grove: error writing history file, %s: %s\n", history, err)
	} else {
		line.WriteHistory(f)
		f.Close()
	}
}
