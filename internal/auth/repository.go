package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	db "meal-board/internal/auth/db"
	"meal-board/internal/database"
)

// User is a board owner.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// sessionRow is a stored sign-in. Tokens carry its id; deleting the row
// revokes them.
type sessionRow struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Repository provides access to user and session persistence operations.
type Repository struct {
	queries *db.Queries
}

// NewRepository creates a new Repository instance.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{queries: db.New(d)}
}

// CreateUser inserts a user with an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, u User, passwordHash []byte) error {
	err := r.queries.InsertUser(ctx, db.InsertUserParams{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: string(passwordHash),
		CreatedAt:    database.ToMillis(u.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the user and password hash, or nil when no user has
// that email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, []byte, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	u := &User{ID: row.ID, Email: row.Email, CreatedAt: database.FromMillis(row.CreatedAt)}
	return u, []byte(row.PasswordHash), nil
}

// GetUser returns the user with the given id, or nil when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &User{ID: row.ID, Email: row.Email, CreatedAt: database.FromMillis(row.CreatedAt)}, nil
}

// CreateSession stores a new session.
func (r *Repository) CreateSession(ctx context.Context, s sessionRow) error {
	err := r.queries.InsertSession(ctx, db.InsertSessionParams{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: database.ToMillis(s.ExpiresAt),
		CreatedAt: database.ToMillis(s.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession returns a stored session, or nil when it was never created or
// has been revoked.
func (r *Repository) GetSession(ctx context.Context, id string) (*sessionRow, error) {
	row, err := r.queries.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sessionRow{
		ID:        row.ID,
		UserID:    row.UserID,
		ExpiresAt: database.FromMillis(row.ExpiresAt),
		CreatedAt: database.FromMillis(row.CreatedAt),
	}, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	if err := r.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all sessions that expired before now and returns
// how many were removed.
func (r *Repository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, database.ToMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}
