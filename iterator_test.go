package grove_test

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leftmike/grove"
)

func collect(t *testing.T, s *grove.Store, start []byte) [][2]string {
	t.Helper()

	it, err := s.NewIterator(start)
	if err != nil {
		t.Fatalf("NewIterator() failed with %s", err)
	}
	defer it.Close()

	var got [][2]string
	for ; it.Valid(); it.Next() {
		key, val := it.Current()
		got = append(got, [2]string{string(key), string(val)})
	}
	if err := it.Status(); err != nil {
		t.Fatalf("Status() failed with %s", err)
	}
	return got
}

func runRangeTest(t *testing.T, s *grove.Store) {
	t.Helper()

	for _, kv := range [][2]string{{"b", "1"}, {"a", "2"}, {"c", "3"}} {
		err := s.Insert([]byte(kv[0]), []byte(kv[1]))
		if err != nil {
			t.Fatalf("Insert(%q) failed with %s", kv[0], err)
		}
	}

	want := [][2]string{{"a", "2"}, {"b", "1"}, {"c", "3"}}
	if diff := cmp.Diff(want, collect(t, s, nil)); diff != "" {
		t.Errorf("iterate from nil: (-want +got):\n%s", diff)
	}

	want = [][2]string{{"b", "1"}, {"c", "3"}}
	if diff := cmp.Diff(want, collect(t, s, []byte("b"))); diff != "" {
		t.Errorf(`iterate from "b": (-want +got):\n%s`, diff)
	}

	// A start key between stored keys positions at the next larger key.
	if diff := cmp.Diff(want, collect(t, s, []byte("ab"))); diff != "" {
		t.Errorf(`iterate from "ab": (-want +got):\n%s`, diff)
	}

	if got := collect(t, s, []byte("zzz")); len(got) != 0 {
		t.Errorf("iterate from past the last key got %v", got)
	}
}

func runRangeCoverageTest(t *testing.T, s *grove.Store) {
	t.Helper()

	// Insert in random order, overwrite some keys, delete some keys: the
	// iterator must visit each live key exactly once, in order, with its
	// last written value.
	rng := rand.New(rand.NewSource(17))

	want := map[string]string{}
	var keys []string
	for i := 0; i < 100; i += 1 {
		keys = append(keys, fmt.Sprintf("key-%03d", i))
	}
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	for idx, key := range keys {
		val := fmt.Sprintf("val-%d", idx)
		err := s.Insert([]byte(key), []byte(val))
		if err != nil {
			t.Fatalf("Insert(%q) failed with %s", key, err)
		}
		want[key] = val
	}
	for _, key := range keys[:25] {
		val := "rewritten"
		err := s.Insert([]byte(key), []byte(val))
		if err != nil {
			t.Fatalf("Insert(%q) failed with %s", key, err)
		}
		want[key] = val
	}
	for _, key := range keys[25:40] {
		err := s.Delete([]byte(key))
		if err != nil {
			t.Fatalf("Delete(%q) failed with %s", key, err)
		}
		delete(want, key)
	}

	var wantSorted [][2]string
	for key, val := range want {
		wantSorted = append(wantSorted, [2]string{key, val})
	}
	sort.Slice(wantSorted, func(i, j int) bool {
		return wantSorted[i][0] < wantSorted[j][0]
	})

	if diff := cmp.Diff(wantSorted, collect(t, s, nil)); diff != "" {
		t.Errorf("full iteration: (-want +got):\n%s", diff)
	}

	// Start in the middle: every yielded key must be >= the start key.
	start := wantSorted[len(wantSorted)/2][0]
	if diff := cmp.Diff(wantSorted[len(wantSorted)/2:], collect(t, s, []byte(start))); diff != "" {
		t.Errorf("iteration from %q: (-want +got):\n%s", start, diff)
	}
}

func TestMemoryIterator(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "memory_iter"),
		grove.EngineMemory))
	defer s.Close()

	runRangeTest(t, s)
}

func TestPebbleIterator(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "pebble_iter"),
		grove.EnginePebble))
	defer s.Close()

	runRangeTest(t, s)
}

func TestMemoryIteratorCoverage(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "memory_iter_cover"),
		grove.EngineMemory))
	defer s.Close()

	runRangeCoverageTest(t, s)
}

func TestPebbleIteratorCoverage(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "pebble_iter_cover"),
		grove.EnginePebble))
	defer s.Close()

	runRangeCoverageTest(t, s)
}

func TestIteratorEmpty(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "memory_iter_empty"),
		grove.EngineMemory))
	defer s.Close()

	it, err := s.NewIterator(nil)
	if err != nil {
		t.Fatalf("NewIterator() failed with %s", err)
	}
	defer it.Close()

	if it.Valid() {
		t.Error("Valid() on an empty store")
	}
	if it.Status() != nil {
		t.Errorf("Status() got %s", it.Status())
	}
}

func TestIteratorNextInvalid(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "memory_iter_next"),
		grove.EngineMemory))
	defer s.Close()

	it, err := s.NewIterator(nil)
	if err != nil {
		t.Fatalf("NewIterator() failed with %s", err)
	}
	defer it.Close()

	defer func() {
		if recover() == nil {
			t.Error("Next() on an invalid iterator did not panic")
		}
	}()
	it.Next()
}

func TestIteratorStartTooLong(t *testing.T) {
	s := mustCreate(t, storeConfig(t, filepath.Join("testdata", "memory_iter_long"),
		grove.EngineMemory))
	defer s.Close()

	start := make([]byte, 100)
	_, err := s.NewIterator(start)
	if grove.Errno(err) != 22 {
		t.Errorf("NewIterator(100 byte start) got errno %d want 22", grove.Errno(err))
	}
}
