package models

import (
	"time"
)

// User represents a Finch user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// HistoryID is the opaque Gmail history cursor for incremental sync.
	// Nil until the first full sync completes.
	HistoryID *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoogleCredential holds a user's Gmail OAuth tokens. The refresh token is
// stored encrypted; the access token is short-lived and kept in the clear.
type GoogleCredential struct {
	UserID                string     `json:"user_id"`
	AccessToken           string     `json:"-"`
	EncryptedRefreshToken []byte     `json:"-"`
	TokenExpiry           *time.Time `json:"-"`
}

// AuthStatusResponse reports the authentication and mailbox-connection status
// of a user.
type AuthStatusResponse struct {
	IsAuthenticated    bool `json:"isAuthenticated"`
	IsMailboxConnected bool `json:"isMailboxConnected"`
}
