package repl_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/leftmike/grove"
	"github.com/leftmike/grove/repl"
	"github.com/leftmike/grove/testutil"
)

func testStore(t *testing.T) *grove.Store {
	t.Helper()

	dir := filepath.Join("testdata", "repl_store")
	err := testutil.CleanDir(dir, []string{".gitignore"})
	if err != nil {
		t.Fatal(err)
	}

	s, err := grove.Create(&grove.Config{
		Filename:  dir,
		CacheSize: 1024 * 1024,
		DiskSize:  16 * 1024 * 1024,
		Engine:    grove.EngineMemory,
		UseStats:  true,
		Logger:    testutil.SetupLogger(filepath.Join("testdata", "repl.log")),
		Data:      grove.DefaultDataConfig(32),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExecute(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	var buf bytes.Buffer
	script := []string{
		"put apple red",
		"get apple",
		"get missing",
		"delete apple",
		"get apple",
		"update apple delta",
		"put",
	}
	for _, line := range script {
		if repl.Execute(s, line, &buf) {
			t.Fatalf("Execute(%q) asked to exit", line)
		}
	}

	want := strings.Join([]string{
		"ok",
		"red",
		"not found",
		"ok",
		"not found",
		"grove: invalid argument: data configuration does not support update",
		"usage: put <key> <value>",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("Execute() output differs:\n%s", diff.LineDiff(want, got))
	}
}

func TestExecuteScan(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	var buf bytes.Buffer
	for _, line := range []string{"put b 1", "put a 2", "put c 3"} {
		repl.Execute(s, line, &buf)
	}

	buf.Reset()
	repl.Execute(s, "scan", &buf)
	out := buf.String()

	// Keys must appear in order.
	ia, ib, ic := strings.Index(out, "a"), strings.Index(out, "b"), strings.Index(out, "c")
	if ia < 0 || ib < 0 || ic < 0 || ia > ib || ib > ic {
		t.Errorf("scan output out of order:\n%s", out)
	}

	buf.Reset()
	repl.Execute(s, "scan b", &buf)
	if strings.Contains(buf.String(), "2") {
		t.Errorf("scan from b included key a:\n%s", buf.String())
	}

	buf.Reset()
	repl.Execute(s, "scan a 1", &buf)
	if strings.Contains(buf.String(), "b") {
		t.Errorf("scan with limit 1 included more than one key:\n%s", buf.String())
	}
}

func TestExecuteExit(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	var buf bytes.Buffer
	if !repl.Execute(s, "exit", &buf) {
		t.Error(`Execute("exit") did not ask to exit`)
	}
	if repl.Execute(s, "unknown-command", &buf) {
		t.Error("Execute(unknown) asked to exit")
	}
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("Execute(unknown) output: %q", buf.String())
	}
}
