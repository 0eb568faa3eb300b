package shardlog_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/shardlog"
	"github.com/leftmike/grove/testutil"
)

func TestAppendScan(t *testing.T) {
	dir := t.TempDir()
	logger := testutil.SetupLogger(filepath.Join("testdata", "shardlog.log"))

	l, err := shardlog.Open(dir, false, logger)
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}

	ops := []struct {
		op    encode.MessageType
		key   string
		value string
	}{
		{encode.Insert, "a", "1"},
		{encode.Insert, "b", "2"},
		{encode.Delete, "a", ""},
		{encode.Update, "b", "+1"},
	}
	for _, op := range ops {
		seq, err := l.Append(op.op, []byte(op.key), []byte(op.value))
		if err != nil {
			t.Fatalf("Append(%s, %q) failed with %s", op.op, op.key, err)
		}
		if seq == 0 {
			t.Fatalf("Append(%s, %q) got sequence 0", op.op, op.key)
		}
	}
	if l.Seq() != uint64(len(ops)) {
		t.Fatalf("Seq() got %d want %d", l.Seq(), len(ops))
	}

	idx := 0
	err = l.Scan(0, func(rec shardlog.Record) error {
		if idx >= len(ops) {
			t.Fatalf("Scan() visited more than %d records", len(ops))
		}
		op := ops[idx]
		if rec.Seq != uint64(idx+1) || rec.Op != op.op || string(rec.Key) != op.key ||
			string(rec.Value) != op.value {

			t.Errorf("record %d got (%d, %s, %q, %q) want (%d, %s, %q, %q)", idx, rec.Seq,
				rec.Op, rec.Key, rec.Value, idx+1, op.op, op.key, op.value)
		}
		idx += 1
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() failed with %s", err)
	}
	if idx != len(ops) {
		t.Fatalf("Scan() visited %d records want %d", idx, len(ops))
	}

	// Scan from the middle, stopping early.
	var seqs []uint64
	err = l.Scan(3, func(rec shardlog.Record) error {
		seqs = append(seqs, rec.Seq)
		return io.EOF
	})
	if err != nil {
		t.Fatalf("Scan(3) failed with %s", err)
	}
	if len(seqs) != 1 || seqs[0] != 3 {
		t.Fatalf("Scan(3) visited %v", seqs)
	}

	err = l.Close()
	if err != nil {
		t.Fatalf("Close() failed with %s", err)
	}

	// Reopening recovers the sequence number.
	l, err = shardlog.Open(dir, false, logger)
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	defer l.Close()

	if l.Seq() != uint64(len(ops)) {
		t.Fatalf("Seq() after reopen got %d want %d", l.Seq(), len(ops))
	}
	seq, err := l.Append(encode.Insert, []byte("c"), []byte("3"))
	if err != nil {
		t.Fatalf("Append() failed with %s", err)
	}
	if seq != uint64(len(ops)+1) {
		t.Fatalf("Append() after reopen got sequence %d want %d", seq, len(ops)+1)
	}
}
