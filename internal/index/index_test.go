package index

import "testing"

func TestIndex_InsertOverwrites(t *testing.T) {
	idx := New()
	idx.Insert("k", 1)
	idx.Insert("k", 2)

	ptr, ok := idx.Lookup("k")
	if !ok || ptr != 2 {
		t.Errorf("Lookup() = (%d, %v), want (2, true)", ptr, ok)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestIndex_Remove(t *testing.T) {
	idx := New()
	if idx.Remove("missing") {
		t.Error("Remove() of a never-inserted key should return false")
	}

	idx.Insert("k", 1)
	if !idx.Remove("k") {
		t.Error("Remove() of a present key should return true")
	}
	if _, ok := idx.Lookup("k"); ok {
		t.Error("Lookup() should miss after Remove()")
	}
}

func TestIndex_Clear(t *testing.T) {
	idx := New()
	idx.Insert("a", 1)
	idx.Insert("b", 2)
	idx.Clear()

	if idx.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", idx.Len())
	}
}

func TestIndex_SnapshotLoadRoundTrip(t *testing.T) {
	idx := New()
	idx.Insert("a", 1)
	idx.Insert("b", 2)

	snap := idx.Snapshot()

	restored := New()
	restored.Load(snap)

	if restored.Len() != idx.Len() {
		t.Fatalf("restored Len() = %d, want %d", restored.Len(), idx.Len())
	}
	for k, want := range snap {
		got, ok := restored.Lookup(k)
		if !ok || got != want {
			t.Errorf("restored Lookup(%q) = (%d, %v), want (%d, true)", k, got, ok, want)
		}
	}

	// Mutating the returned snapshot must not affect the index.
	snap["a"] = 999
	if ptr, _ := idx.Lookup("a"); ptr == 999 {
		t.Error("Snapshot() must return a copy, not a live view")
	}
}
