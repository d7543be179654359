package analysis

import (
	"context"
	"time"
)

// Repo defines persistence operations for analysis records.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	UpdateStatus(ctx context.Context, id, status string, result *Result, errorMessage *string, completedAt *time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
}
