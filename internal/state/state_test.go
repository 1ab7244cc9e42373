package state

import "testing"

func TestTabStoreCopiesEntries(t *testing.T) {
	store := NewTabStore()
	tabs := []Tab{{Position: 0, Name: "a"}}
	store.SetEntries(tabs)
	tabs[0].Name = "mutated"
	if store.Entries()[0].Name != "a" {
		t.Fatalf("store should not alias the caller's slice")
	}
	got := store.Entries()
	got[0].Name = "mutated"
	if store.Entries()[0].Name != "a" {
		t.Fatalf("Entries should return a copy")
	}
}

func TestTabStoreSetName(t *testing.T) {
	store := NewTabStore()
	store.SetEntries([]Tab{{Position: 0, Name: "a"}, {Position: 3, Name: "b"}})
	if !store.SetName(3, "c") {
		t.Fatalf("expected position 3 to exist")
	}
	if store.SetName(1, "x") {
		t.Fatalf("position 1 does not exist")
	}
	if store.Entries()[1].Name != "c" || store.Len() != 2 {
		t.Fatalf("unexpected entries %#v", store.Entries())
	}
}

func TestPaneStoreIDs(t *testing.T) {
	store := NewPaneStore()
	store.SetEntries([]Pane{{ID: 1}, {ID: 4}})
	ids := store.IDs()
	if _, ok := ids[4]; !ok || len(ids) != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	store.SetEntries(nil)
	if len(store.Entries()) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}

func TestWorkingDirs(t *testing.T) {
	dirs := NewWorkingDirs()
	dirs.Set(1, "/a")
	dirs.Set(1, "/b")
	dirs.Set(2, "/c")
	if got, _ := dirs.Get(1); got != "/b" {
		t.Fatalf("later report should overwrite, got %q", got)
	}
	if removed := dirs.Prune(map[uint32]struct{}{2: {}}); removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
	if _, ok := dirs.Get(1); ok || dirs.Len() != 1 {
		t.Fatalf("pane 1 should be gone")
	}
	snap := dirs.Snapshot()
	snap[9] = "/x"
	if dirs.Len() != 1 {
		t.Fatalf("snapshot should be a copy")
	}
}
