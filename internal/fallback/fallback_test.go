package fallback

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAddressBook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "address_book_fallback.json")
	if err := os.WriteFile(path, []byte(`{"items":[],"total":0,"tokens":[],"note":"stub"}`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := New(path)
	snap, err := store.LoadAddressBook()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Total != 0 || snap.Note != "stub" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestLoadAddressBookMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := store.LoadAddressBook(); err == nil {
		t.Fatal("expected error for missing fallback file")
	}
}
