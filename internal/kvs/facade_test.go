package kvs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

func TestOpen_FreshDirectoryDefaultsToRequestedEngine(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, Kvs, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	if f.Name() != Kvs {
		t.Errorf("Name() = %v, want %v", f.Name(), Kvs)
	}
	if err := f.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if value, ok, err := f.Get("k"); err != nil || !ok || value != "v" {
		t.Errorf("Get() = (%q, %v, %v), want (v, true, nil)", value, ok, err)
	}
}

func TestOpen_FreshDirectorySled(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, Sled, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	if f.Name() != Sled {
		t.Errorf("Name() = %v, want %v", f.Name(), Sled)
	}
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Errorf("expected sled marker directory, stat error = %v", err)
	}
}

func TestOpen_RequestingKvsOverExistingSledIsFatal(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, Sled, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f.Close()

	_, err = Open(dir, Kvs, 0, nil)
	if !errors.Is(err, kvserr.ErrKvsOverSled) {
		t.Errorf("Open() error = %v, want ErrKvsOverSled", err)
	}
	if kvserr.ExitCode(err) != 10 {
		t.Errorf("ExitCode() = %d, want 10", kvserr.ExitCode(err))
	}
}

func TestOpen_RequestingSledOverExistingKvsIsFatal(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, Kvs, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	f.Close()

	_, err = Open(dir, Sled, 0, nil)
	if !errors.Is(err, kvserr.ErrSledOverKvs) {
		t.Errorf("Open() error = %v, want ErrSledOverKvs", err)
	}
	if kvserr.ExitCode(err) != 11 {
		t.Errorf("ExitCode() = %d, want 11", kvserr.ExitCode(err))
	}
}

func TestOpen_BothMarkersPresentIsFatal(t *testing.T) {
	dir := t.TempDir()

	kvsStore, err := Open(dir, Kvs, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := kvsStore.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	kvsStore.Close()

	if err := os.Mkdir(filepath.Join(dir, "db"), 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	_, err = Open(dir, Kvs, 0, nil)
	if !errors.Is(err, kvserr.ErrBothEnginesPresent) {
		t.Errorf("Open() error = %v, want ErrBothEnginesPresent", err)
	}
	if kvserr.ExitCode(err) != 4 {
		t.Errorf("ExitCode() = %d, want 4", kvserr.ExitCode(err))
	}
}

func TestOpen_UnsupportedEngineName(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir, Name("rocksdb"), 0, nil)
	if !errors.Is(err, kvserr.ErrUnsupportedEngine) {
		t.Errorf("Open() error = %v, want ErrUnsupportedEngine", err)
	}
	if kvserr.ExitCode(err) != 2 {
		t.Errorf("ExitCode() = %d, want 2", kvserr.ExitCode(err))
	}
}

func TestOpen_IgnoresUnparseableDatafileName(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "kv_abc.log"), []byte{}, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := Open(dir, Sled, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v, want nil (malformed datafile name should be ignored, not treated as a kvs marker)", err)
	}
	f.Close()
}

func TestOpen_ReopensExistingKvsDatabase(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, Kvs, 0, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	f.Close()

	reopened, err := Open(dir, Kvs, 0, nil)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	defer reopened.Close()

	if value, ok, err := reopened.Get("a"); err != nil || !ok || value != "1" {
		t.Errorf("Get(a) = (%q, %v, %v), want (1, true, nil)", value, ok, err)
	}
}
