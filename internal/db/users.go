package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GetOrCreateUser returns the user's id for the given email.
// If no user exists with that email, it creates a new one.
func GetOrCreateUser(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	var userID string

	err := pool.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, email).Scan(&userID)

	if err != nil {
		return "", fmt.Errorf("failed to get or create user: %w", err)
	}

	return userID, nil
}

// GetUserHistoryID returns the user's stored Gmail history cursor.
// Returns nil when the user has never completed a full sync.
func GetUserHistoryID(ctx context.Context, pool *pgxpool.Pool, userID string) (*string, error) {
	var historyID *string

	err := pool.QueryRow(ctx, `
		SELECT history_id
		FROM users
		WHERE id = $1
	`, userID).Scan(&historyID)

	if err != nil {
		return nil, fmt.Errorf("failed to get history id: %w", err)
	}

	return historyID, nil
}

// SetUserHistoryID stores the Gmail history cursor for the user.
func SetUserHistoryID(ctx context.Context, pool *pgxpool.Pool, userID, historyID string) error {
	_, err := pool.Exec(ctx, `
		UPDATE users
		SET history_id = $2, updated_at = now()
		WHERE id = $1
	`, userID, historyID)

	if err != nil {
		return fmt.Errorf("failed to set history id: %w", err)
	}

	return nil
}
