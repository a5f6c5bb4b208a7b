package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meal-board/internal/database"
	db "meal-board/internal/planner/db"
)

// StateRepository is a database-backed store holding one board document per user.
type StateRepository struct {
	queries *db.Queries
	now     func() time.Time
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(d *sql.DB) *StateRepository {
	return &StateRepository{
		queries: db.New(d),
		now:     time.Now,
	}
}

// GetState returns the stored document for userID, or nil when none exists.
func (r *StateRepository) GetState(ctx context.Context, userID string) ([]byte, error) {
	row, err := r.queries.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get planner state for user %s: %w", userID, err)
	}
	return []byte(row.Data), nil
}

// PutState upserts the document for userID.
func (r *StateRepository) PutState(ctx context.Context, userID string, data []byte) error {
	err := r.queries.UpsertState(ctx, db.UpsertStateParams{
		UserID:    userID,
		Data:      string(data),
		UpdatedAt: database.ToMillis(r.now()),
	})
	if err != nil {
		return fmt.Errorf("failed to save planner state for user %s: %w", userID, err)
	}
	return nil
}

// UpdatedAt returns when the user's document was last written, or the zero
// time when none exists.
func (r *StateRepository) UpdatedAt(ctx context.Context, userID string) (time.Time, error) {
	row, err := r.queries.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get planner state timestamp: %w", err)
	}
	return database.FromMillis(row.UpdatedAt), nil
}
