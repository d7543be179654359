package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	key, size, mimeType, err := store.Save(context.Background(), "guest:u1", "face.jpg", bytes.NewReader([]byte("fake image bytes")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("fake image bytes")) {
		t.Fatalf("expected size %d, got %d", len("fake image bytes"), size)
	}
	if mimeType == "" {
		t.Fatalf("expected a detected mime type")
	}
	if strings.Contains(key, "guest:u1") {
		t.Fatalf("expected hashed user namespace, got raw id in key %q", key)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "fake image bytes" {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatalf("expected error for traversal key")
	}
	if _, err := store.Open(context.Background(), "/etc/passwd"); err == nil {
		t.Fatalf("expected error for absolute key")
	}
}

func TestSaveRejectsBadFileName(t *testing.T) {
	store := New(t.TempDir())

	if _, _, _, err := store.Save(context.Background(), "u1", "../evil.jpg", bytes.NewReader([]byte("x"))); err == nil {
		t.Fatalf("expected error for traversal file name")
	}
}
