package api

import (
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// MessagesHandler handles the email list endpoint.
type MessagesHandler struct {
	pool *pgxpool.Pool
	mail gmail.MailService
}

// NewMessagesHandler creates a new MessagesHandler instance.
func NewMessagesHandler(pool *pgxpool.Pool, mail gmail.MailService) *MessagesHandler {
	return &MessagesHandler{pool: pool, mail: mail}
}

// GetMessages returns the thread-deduplicated email list for the filter.
// Search terms trigger a remote search sync first, so the local query sees
// matches that were never synced; a failed remote search degrades to cached
// results instead of failing the request.
func (h *MessagesHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	filter := ParseEmailFilter(r)

	if filter.HasSearch() {
		if _, err := h.mail.SyncSearch(ctx, userID, filter); err != nil {
			log.Printf("MessagesHandler: Remote search failed, serving cached results: %v", err)
		}
	}

	emails, err := db.ListEmails(ctx, h.pool, userID, filter)
	if err != nil {
		log.Printf("MessagesHandler: Failed to list emails: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if emails == nil {
		emails = []*models.Message{}
	}

	WriteJSONResponse(w, models.EmailListResponse{Emails: emails})
}
