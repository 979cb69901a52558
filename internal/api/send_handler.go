package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// SendHandler handles the send endpoint.
type SendHandler struct {
	pool *pgxpool.Pool
	mail gmail.MailService
}

// NewSendHandler creates a new SendHandler instance.
func NewSendHandler(pool *pgxpool.Pool, mail gmail.MailService) *SendHandler {
	return &SendHandler{pool: pool, mail: mail}
}

// SendMessage sends an email through the user's Gmail account.
func (h *SendHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	var req models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	messageID, err := h.mail.Send(ctx, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, gmail.ErrMissingFields):
			http.Error(w, "to and subject are required", http.StatusBadRequest)
		case errors.Is(err, gmail.ErrNotConnected):
			http.Error(w, "Google account not connected", http.StatusBadRequest)
		default:
			log.Printf("SendHandler: Failed to send email: %v", err)
			http.Error(w, "Failed to send email", http.StatusInternalServerError)
		}
		return
	}

	WriteJSONResponse(w, models.SendResponse{MessageID: messageID})
}
