// Package repl is the interactive shell over an open store.
package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/leftmike/grove"
)

const helpText = `commands:
  get <key>             lookup a key
  put <key> <value>     insert or replace a key
  delete <key>          delete a key
  update <key> <delta>  merge a delta into a key
  scan [start] [limit]  list keys in order, optionally from start
  stats [insert|lookup] print statistics
  reset                 reset statistics
  flush                 flush the storage core
  version               print the build version
  exit                  leave the shell
`

// Execute runs a single shell command against s, writing output to w. It
// returns true when the shell should exit.
func Execute(s *grove.Store, line string, w io.Writer) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprint(w, helpText)
	case "version":
		fmt.Fprintln(w, grove.Version())
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(w, "usage: get <key>")
			break
		}
		get(s, args[1], w)
	case "put":
		if len(args) != 3 {
			fmt.Fprintln(w, "usage: put <key> <value>")
			break
		}
		report(w, s.Insert([]byte(args[1]), []byte(args[2])))
	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(w, "usage: delete <key>")
			break
		}
		report(w, s.Delete([]byte(args[1])))
	case "update":
		if len(args) != 3 {
			fmt.Fprintln(w, "usage: update <key> <delta>")
			break
		}
		report(w, s.Update([]byte(args[1]), []byte(args[2])))
	case "scan":
		scan(s, args[1:], w)
	case "stats":
		if len(args) == 2 && args[1] == "insert" {
			s.PrintInsertionStats(w)
		} else if len(args) == 2 && args[1] == "lookup" {
			s.PrintLookupStats(w)
		} else {
			s.PrintInsertionStats(w)
			s.PrintLookupStats(w)
		}
	case "reset":
		s.ResetStats()
	case "flush":
		report(w, s.Flush())
	default:
		fmt.Fprintf(w, "unknown command: %s; try help\n", args[0])
	}
	return false
}

func report(w io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(w, err)
	} else {
		fmt.Fprintln(w, "ok")
	}
}

func get(s *grove.Store, key string, w io.Writer) {
	var result grove.LookupResult
	result.Init(nil)
	defer result.Deinit()

	err := s.Lookup([]byte(key), &result)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	if !result.Found() {
		fmt.Fprintln(w, "not found")
		return
	}

	val, err := result.Value()
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, "%s\n", val)
}

func scan(s *grove.Store, args []string, w io.Writer) {
	var start []byte
	limit := -1

	if len(args) > 2 {
		fmt.Fprintln(w, "usage: scan [start] [limit]")
		return
	}
	if len(args) >= 1 {
		start = []byte(args[0])
	}
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			fmt.Fprintf(w, "scan: bad limit: %s\n", args[1])
			return
		}
		limit = n
	}

	it, err := s.NewIterator(start)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	defer it.Close()

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Key", "Value"})

	cnt := 0
	for ; it.Valid(); it.Next() {
		if limit >= 0 && cnt >= limit {
			break
		}
		key, val := it.Current()
		tbl.Append([]string{string(key), string(val)})
		cnt += 1
	}
	if err := it.Status(); err != nil {
		fmt.Fprintln(w, err)
		return
	}
	tbl.Render()
}
