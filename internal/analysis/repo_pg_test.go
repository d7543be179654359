package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := Record{
		ID:        "analysis-1",
		UserID:    "user-1",
		Status:    StatusLoading,
		ImageKey:  "abc/face.jpg",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			rec.ID,
			rec.UserID,
			rec.Status,
			rec.ImageKey,
			nil, // result
			nil, // error_message
			rec.CreatedAt,
			nil, // completed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateWithoutImageKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := Record{
		ID:        "analysis-1",
		UserID:    "user-1",
		Status:    StatusLoading,
		CreatedAt: time.Now().UTC(),
	}

	// An imageURL-only submission has no stored image. The NOT NULL
	// image_key column must receive "", never SQL NULL.
	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			rec.ID,
			rec.UserID,
			rec.Status,
			"",
			nil,
			nil,
			rec.CreatedAt,
			nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	result := Normalize(nil)
	completedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE analyses").
		WithArgs("analysis-1", StatusCompleted, sqlmock.AnyArg(), nil, &completedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "analysis-1", StatusCompleted, &result, nil, &completedAt); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusMissingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE analyses").
		WithArgs("missing", StatusFailed, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	msg := "boom"
	now := time.Now().UTC()
	if err := repo.UpdateStatus(context.Background(), "missing", StatusFailed, nil, &msg, &now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "image_key", "result", "error_message", "created_at", "completed_at"}).
		AddRow("analysis-2", "user-1", StatusCompleted, "k2", []byte(`{"imageUrl":"/x.png","results":[],"predictedProblems":[],"recommendations":""}`), nil, now, &now).
		AddRow("analysis-1", "user-1", StatusFailed, nil, nil, "boom", now.Add(-time.Minute), &now)

	mock.ExpectQuery("SELECT id, user_id, status, image_key, result, error_message, created_at, completed_at").
		WithArgs("user-1", 20, 0).
		WillReturnRows(rows)

	recs, err := repo.ListByUser(context.Background(), "user-1", 20, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Result == nil || recs[0].Result.ImageURL != "/x.png" {
		t.Fatalf("expected result decoded, got %+v", recs[0].Result)
	}
	if recs[1].ErrorMessage == nil || *recs[1].ErrorMessage != "boom" {
		t.Fatalf("expected error message, got %v", recs[1].ErrorMessage)
	}
}

func TestPGRepoGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, user_id, status, image_key, result, error_message, created_at, completed_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "image_key", "result", "error_message", "created_at", "completed_at"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
