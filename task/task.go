// Package task tracks the threads allowed to operate on a store and hands
// each one a scratch buffer used by the engine for key encoding.
package task

import (
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// MaxThreads is the ceiling on concurrently registered threads. Exceeding
// it is a programming error.
const MaxThreads = 64

type System struct {
	mutex       sync.Mutex
	scratchSize int
	slots       map[int][]byte
	logger      *log.Logger
}

func NewSystem(scratchSize int, logger *log.Logger) *System {
	return &System{
		scratchSize: scratchSize,
		slots:       map[int][]byte{},
		logger:      logger,
	}
}

// Register registers the calling thread and allocates its scratch buffer.
// The calling goroutine is pinned to its operating system thread until
// Deregister; any thread other than the one that opened the store must
// register before its first operation.
func (ts *System) Register() {
	runtime.LockOSThread()
	tid := unix.Gettid()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if _, ok := ts.slots[tid]; ok {
		panic(fmt.Sprintf("task: thread %d registered twice", tid))
	}
	if len(ts.slots) >= MaxThreads {
		panic(fmt.Sprintf("task: too many threads; at most %d may be registered", MaxThreads))
	}
	ts.slots[tid] = make([]byte, ts.scratchSize)
}

// Deregister releases the calling thread's scratch buffer and unpins the
// goroutine. A thread that exits without deregistering leaks its slot.
func (ts *System) Deregister() {
	tid := unix.Gettid()

	ts.mutex.Lock()
	if _, ok := ts.slots[tid]; !ok {
		ts.mutex.Unlock()
		panic(fmt.Sprintf("task: thread %d is not registered", tid))
	}
	delete(ts.slots, tid)
	ts.mutex.Unlock()

	runtime.UnlockOSThread()
}

// Scratch returns the calling thread's scratch buffer. Calling from an
// unregistered thread is a programming error.
func (ts *System) Scratch() []byte {
	tid := unix.Gettid()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	scratch, ok := ts.slots[tid]
	if !ok {
		panic(fmt.Sprintf(
			"task: thread %d is not registered; call RegisterThread before using the store",
			tid))
	}
	return scratch
}

// Registered reports whether the calling thread holds a slot.
func (ts *System) Registered() bool {
	tid := unix.Gettid()

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	_, ok := ts.slots[tid]
	return ok
}

// Destroy tears down the system. Slots still held by other threads are
// logged and dropped.
func (ts *System) Destroy() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if len(ts.slots) > 0 && ts.logger != nil {
		ts.logger.WithField("threads", len(ts.slots)).
			Warn("task system destroyed with registered threads")
	}
	ts.slots = map[int][]byte{}
}
