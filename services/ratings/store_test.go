package ratings

import (
	"fmt"
	"testing"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Set("tt0111161", "9.3"); err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	store.Close()

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	rating, ok, err := reopened.Get("tt0111161")
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if !ok || rating != "9.3" {
		t.Fatalf("expected 9.3 after reopen, got %q ok=%v", rating, ok)
	}
}

func TestStoreMissingEntry(t *testing.T) {
	store := newTestStore(t)
	if _, ok, err := store.Get("tt0000000"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestStoreEvictsOldestBeyondCapacity(t *testing.T) {
	store := newTestStore(t)
	store.capacity = 3

	for i := 1; i <= 5; i++ {
		// Distinct timestamps so eviction order is deterministic.
		if _, err := store.db.Exec(
			`INSERT INTO ratings (imdb_id, rating, updated_at) VALUES (?, ?, datetime('2024-01-01', ?))`,
			fmt.Sprintf("tt%07d", i), "7.0", fmt.Sprintf("+%d hours", i)); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	if err := store.Set("tt0000006", "8.0"); err != nil {
		t.Fatalf("set returned error: %v", err)
	}

	n, err := store.Len()
	if err != nil {
		t.Fatalf("len returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected capacity bound of 3, got %d", n)
	}

	// The newest write survives; the oldest seeds are gone.
	if _, ok, _ := store.Get("tt0000006"); !ok {
		t.Fatal("newest entry should survive eviction")
	}
	if _, ok, _ := store.Get("tt0000001"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
}

func TestStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("  "); err != ErrStorageDirRequired {
		t.Fatalf("expected ErrStorageDirRequired, got %v", err)
	}
}
