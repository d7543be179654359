package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		sess := Session{Token: "tok-1", User: User{"email": "a@b.com", "id": "u1"}}
		if err := store.Save(context.Background(), sess); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}

		got, ok, err := store.Load(context.Background())
		if err != nil {
			t.Fatalf("%s: Load: %v", name, err)
		}
		if !ok {
			t.Fatalf("%s: expected session present", name)
		}
		if got.Token != "tok-1" {
			t.Fatalf("%s: expected token tok-1, got %q", name, got.Token)
		}
		if got.User.Email() != "a@b.com" {
			t.Fatalf("%s: expected email a@b.com, got %q", name, got.User.Email())
		}
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	for name, store := range testStores(t) {
		_, ok, err := store.Load(context.Background())
		if err != nil {
			t.Fatalf("%s: Load: %v", name, err)
		}
		if ok {
			t.Fatalf("%s: expected no session", name)
		}
	}
}

func TestStoreClearIsIdempotent(t *testing.T) {
	for name, store := range testStores(t) {
		if err := store.Save(context.Background(), Session{Token: "tok", User: User{"email": "a@b.com"}}); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		if err := store.Clear(context.Background()); err != nil {
			t.Fatalf("%s: Clear: %v", name, err)
		}
		if err := store.Clear(context.Background()); err != nil {
			t.Fatalf("%s: second Clear: %v", name, err)
		}
		if _, ok, _ := store.Load(context.Background()); ok {
			t.Fatalf("%s: expected no session after clear", name)
		}
	}
}

func TestFileStorePartialPairReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Save(context.Background(), Session{Token: "tok", User: User{"email": "a@b.com"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "user")); err != nil {
		t.Fatalf("remove user file: %v", err)
	}

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatalf("expected absent session when the user half is missing")
	}
}

func TestFileStoreCorruptUserReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Save(context.Background(), Session{Token: "tok", User: User{"email": "a@b.com"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "user"), []byte("{corrupt"), 0o600); err != nil {
		t.Fatalf("write corrupt user: %v", err)
	}

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatalf("expected absent session for corrupted user record")
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.Save(context.Background(), Session{Token: "old", User: User{"email": "old@b.com"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(context.Background(), Session{Token: "new", User: User{"email": "new@b.com"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Token != "new" || got.User.Email() != "new@b.com" {
		t.Fatalf("expected newest pair, got %+v", got)
	}
}
