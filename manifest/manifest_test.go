package manifest_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leftmike/grove/manifest"
)

func testMeta() manifest.Meta {
	return manifest.Meta{
		Engine:     "pebble",
		PageSize:   4096,
		ExtentSize: 4096 * 128,
		DiskSize:   1024 * 1024 * 1024,
		KeySize:    64,
		RootID:     1,
		MinKey:     []byte{0},
		MaxKey:     []byte{64, 0xFF, 0xFF},
	}
}

func TestCreateMount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST")
	meta := testMeta()

	m, err := manifest.Create(path, meta)
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	err = m.Close()
	if err != nil {
		t.Fatalf("Close() failed with %s", err)
	}

	m, err = manifest.Mount(path, meta)
	if err != nil {
		t.Fatalf("Mount() failed with %s", err)
	}
	defer m.Close()

	if diff := cmp.Diff(meta, m.Meta()); diff != "" {
		t.Errorf("Meta() (-want +got):\n%s", diff)
	}
}

func TestCreateExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST")

	m, err := manifest.Create(path, testMeta())
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	m.Close()

	_, err = manifest.Create(path, testMeta())
	if !errors.Is(err, manifest.ErrExists) {
		t.Errorf("Create() of existing manifest got %v want ErrExists", err)
	}
}

func TestMountMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST")

	_, err := manifest.Mount(path, testMeta())
	if !errors.Is(err, manifest.ErrNotExists) {
		t.Errorf("Mount() of missing manifest got %v want ErrNotExists", err)
	}
}

func TestMountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST")

	m, err := manifest.Create(path, testMeta())
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	m.Close()

	cases := []func(meta *manifest.Meta){
		func(meta *manifest.Meta) { meta.Engine = "memory" },
		func(meta *manifest.Meta) { meta.PageSize = 8192 },
		func(meta *manifest.Meta) { meta.ExtentSize = 4096 },
		func(meta *manifest.Meta) { meta.KeySize = 32 },
		func(meta *manifest.Meta) { meta.RootID = 2 },
		func(meta *manifest.Meta) { meta.MinKey = []byte{1, 2} },
		func(meta *manifest.Meta) { meta.MaxKey = []byte{1, 2} },
	}
	for i, mod := range cases {
		meta := testMeta()
		mod(&meta)
		_, err = manifest.Mount(path, meta)
		if err == nil {
			t.Errorf("cases[%d]: Mount() with mismatched meta did not fail", i)
		}
	}
}
