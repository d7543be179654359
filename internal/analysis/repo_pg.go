package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO analyses (id, user_id, status, image_key, result, error_message, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	resultPayload, err := marshalResult(rec.Result)
	if err != nil {
		return err
	}
	// image_key is NOT NULL; an imageURL-only submission stores "".
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Status,
		rec.ImageKey,
		resultPayload,
		rec.ErrorMessage,
		rec.CreatedAt,
		rec.CompletedAt,
	)
	return err
}

// GetByID returns a record by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	const query = `
SELECT id, user_id, status, image_key, result, error_message, created_at, completed_at
FROM analyses
WHERE id = $1`
	return scanRecord(r.DB.QueryRowContext(ctx, query, id))
}

// UpdateStatus updates lifecycle fields on an existing record.
func (r *PGRepo) UpdateStatus(ctx context.Context, id, status string, result *Result, errorMessage *string, completedAt *time.Time) error {
	const query = `
UPDATE analyses
SET status = $2,
    result = COALESCE($3, result),
    error_message = COALESCE($4, error_message),
    completed_at = COALESCE($5, completed_at)
WHERE id = $1`
	resultPayload, err := marshalResult(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, id, status, resultPayload, errorMessage, completedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's records, newest first, with limit/offset.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, status, image_key, result, error_message, created_at, completed_at
FROM analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		imageKey  sql.NullString
		resultRaw []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Status,
		&imageKey,
		&resultRaw,
		&rec.ErrorMessage,
		&rec.CreatedAt,
		&rec.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.ImageKey = imageKey.String
	if len(resultRaw) > 0 {
		var result Result
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return Record{}, err
		}
		rec.Result = &result
	}
	return rec, nil
}

func marshalResult(result *Result) (any, error) {
	if result == nil {
		return nil, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

var _ Repo = (*PGRepo)(nil)
