// Package engine provides unit tests for the log-structured storage
// engine, covering the concrete end-to-end scenarios from the design
// spec: round-trip, overwrite, missing remove, restart replay, and
// compaction correctness.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

func open(t *testing.T) (*KVStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := open(t)

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, ok, err := store.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || value != "v" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", value, ok, "v")
	}
}

func TestSetOverwrite(t *testing.T) {
	store, dir := open(t)

	if err := store.Set("k", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("k", "v2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := store.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || value != "v2" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", value, ok, "v2")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	count, err := store.log.OrdinalCount()
	if err != nil {
		t.Fatalf("OrdinalCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("log contains %d records, want 2", count)
	}
	_ = dir
}

func TestRemoveOfMissingKey(t *testing.T) {
	store, _ := open(t)

	err := store.Remove("missing")
	if !errors.Is(err, kvserr.ErrKeyNotFound) {
		t.Errorf("Remove() error = %v, want ErrKeyNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestRemoveThenGetMisses(t *testing.T) {
	store, _ := open(t)

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Remove("k"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, ok, err := store.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() after Remove() should miss")
	}
}

func TestRestartReplay(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("b", "2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Remove("a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	defer reopened.Close()

	if _, ok, _ := reopened.Get("a"); ok {
		t.Error("Get(a) after restart should miss")
	}
	if value, ok, _ := reopened.Get("b"); !ok || value != "2" {
		t.Errorf("Get(b) after restart = (%q, %v), want (2, true)", value, ok)
	}
}

func TestCompactionCorrectness(t *testing.T) {
	store, _ := open(t)

	for i := 0; i < 600; i++ {
		key := fmt.Sprintf("k_%d", i)
		value := fmt.Sprintf("v_%d", i)
		if err := store.Set(key, value); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}
	if err := store.Remove("k_0"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	count, err := store.log.OrdinalCount()
	if err != nil {
		t.Fatalf("OrdinalCount() error = %v", err)
	}
	if count > 600 {
		t.Errorf("log length = %d, want <= 600", count)
	}

	if _, ok, _ := store.Get("k_0"); ok {
		t.Error("Get(k_0) should miss after remove")
	}
	if value, ok, err := store.Get("k_599"); err != nil || !ok || value != "v_599" {
		t.Errorf("Get(k_599) = (%q, %v, %v), want (v_599, true, nil)", value, ok, err)
	}
}

func TestCompact_EmptyLogIsNoop(t *testing.T) {
	store, _ := open(t)

	if err := store.Compact(); err != nil {
		t.Fatalf("Compact() on empty log error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestCompact_PreservesGetResults(t *testing.T) {
	store, _ := open(t)

	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("a", "2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("b", "3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Remove("b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	before := map[string]string{"a": "2"}
	beforeLen := store.Len()

	if err := store.Compact(); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	if store.Len() != beforeLen {
		t.Errorf("Len() after compact = %d, want %d", store.Len(), beforeLen)
	}
	for key, want := range before {
		got, ok, err := store.Get(key)
		if err != nil || !ok || got != want {
			t.Errorf("Get(%s) after compact = (%q, %v, %v), want (%q, true, nil)", key, got, ok, err, want)
		}
	}
	if _, ok, _ := store.Get("b"); ok {
		t.Error("Get(b) after compact should still miss")
	}

	count, err := store.log.OrdinalCount()
	if err != nil {
		t.Fatalf("OrdinalCount() error = %v", err)
	}
	if count > store.Len()+1 {
		t.Errorf("log length = %d, want <= index size + at most one vacuous remove", count)
	}
}

func TestOpen_UsesGivenFileDirectly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
}

func TestOpen_CreatesLogInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	want := filepath.Join(dir, LogFileName)
	if store.Path() != want {
		t.Errorf("Path() = %q, want %q", store.Path(), want)
	}
}

func TestGetIdempotent(t *testing.T) {
	store, _ := open(t)
	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	first, okFirst, errFirst := store.Get("k")
	countBefore, _ := store.log.OrdinalCount()

	second, okSecond, errSecond := store.Get("k")
	countAfter, _ := store.log.OrdinalCount()

	if first != second || okFirst != okSecond || errFirst != errSecond {
		t.Error("Get() should be idempotent")
	}
	if countBefore != countAfter {
		t.Error("Get() must not change log length")
	}
}
