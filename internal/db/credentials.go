package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/models"
)

// ErrCredentialNotFound is returned when a user has no stored Google credential.
var ErrCredentialNotFound = errors.New("google credential not found")

// GetCredential returns the user's stored Google OAuth credential.
func GetCredential(ctx context.Context, pool *pgxpool.Pool, userID string) (*models.GoogleCredential, error) {
	var cred models.GoogleCredential

	err := pool.QueryRow(ctx, `
		SELECT user_id, access_token, encrypted_refresh_token, token_expiry
		FROM google_credentials
		WHERE user_id = $1
	`, userID).Scan(
		&cred.UserID,
		&cred.AccessToken,
		&cred.EncryptedRefreshToken,
		&cred.TokenExpiry,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get google credential: %w", err)
	}

	return &cred, nil
}

// SaveCredential saves or updates the user's Google OAuth credential.
// Called both on initial connect and whenever a token refresh produces a new
// access token, so that refreshed tokens are persisted immediately.
func SaveCredential(ctx context.Context, pool *pgxpool.Pool, cred *models.GoogleCredential) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO google_credentials (user_id, access_token, encrypted_refresh_token, token_expiry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = now()
	`, cred.UserID, cred.AccessToken, cred.EncryptedRefreshToken, cred.TokenExpiry)

	if err != nil {
		return fmt.Errorf("failed to save google credential: %w", err)
	}

	return nil
}
