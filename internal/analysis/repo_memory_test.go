package analysis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		rec := Record{ID: id, UserID: "u1", Status: StatusCompleted, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(context.Background(), rec); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	recs, err := repo.ListByUser(context.Background(), "u1", 2, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "c" || recs[1].ID != "b" {
		t.Fatalf("expected newest first, got %s %s", recs[0].ID, recs[1].ID)
	}

	page, err := repo.ListByUser(context.Background(), "u1", 2, 2)
	if err != nil {
		t.Fatalf("ListByUser offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("expected last page [a], got %+v", page)
	}
}

func TestMemoryRepoUpdateMissing(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.UpdateStatus(context.Background(), "missing", StatusFailed, nil, nil, &now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoGetByID(t *testing.T) {
	repo := NewMemoryRepo()
	rec := Record{ID: "a", UserID: "u1", Status: StatusLoading, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(context.Background(), "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusLoading {
		t.Fatalf("expected status loading, got %q", got.Status)
	}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
