package task_test

import (
	"sync"
	"testing"

	"github.com/leftmike/grove/task"
	"github.com/leftmike/grove/testutil"
)

func TestRegister(t *testing.T) {
	ts := task.NewSystem(128, testutil.SetupLogger("testdata/task.log"))

	if ts.Registered() {
		t.Fatal("Registered() before Register()")
	}

	ts.Register()
	if !ts.Registered() {
		t.Fatal("Registered() is false after Register()")
	}

	scratch := ts.Scratch()
	if len(scratch) != 128 {
		t.Fatalf("Scratch() got %d bytes want 128", len(scratch))
	}

	ts.Deregister()
	if ts.Registered() {
		t.Fatal("Registered() is true after Deregister()")
	}

	ts.Destroy()
}

func TestScratchUnregistered(t *testing.T) {
	ts := task.NewSystem(128, testutil.SetupLogger("testdata/task.log"))
	defer ts.Destroy()

	defer func() {
		if recover() == nil {
			t.Error("Scratch() from an unregistered thread did not panic")
		}
	}()
	ts.Scratch()
}

func TestRegisterThreads(t *testing.T) {
	ts := task.NewSystem(64, testutil.SetupLogger("testdata/task.log"))
	defer ts.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < 8; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ts.Register()
			defer ts.Deregister()

			scratch := ts.Scratch()
			if len(scratch) != 64 {
				t.Errorf("Scratch() got %d bytes want 64", len(scratch))
			}
		}()
	}
	wg.Wait()
}
