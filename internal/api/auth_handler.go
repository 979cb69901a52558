package api

import (
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// AuthHandler handles authentication status requests.
type AuthHandler struct {
	pool *pgxpool.Pool
	mail gmail.MailService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(pool *pgxpool.Pool, mail gmail.MailService) *AuthHandler {
	return &AuthHandler{pool: pool, mail: mail}
}

// GetAuthStatus reports whether the caller is authenticated and has a Google
// account connected.
func (h *AuthHandler) GetAuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	connected, err := h.mail.IsConnected(ctx, userID)
	if err != nil {
		log.Printf("AuthHandler: Failed to check credential: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	WriteJSONResponse(w, models.AuthStatusResponse{
		IsAuthenticated:    true,
		IsMailboxConnected: connected,
	})
}
