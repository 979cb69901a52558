package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// SyncHandler handles the manual sync endpoint.
type SyncHandler struct {
	pool *pgxpool.Pool
	mail gmail.MailService
}

// NewSyncHandler creates a new SyncHandler instance.
func NewSyncHandler(pool *pgxpool.Pool, mail gmail.MailService) *SyncHandler {
	return &SyncHandler{pool: pool, mail: mail}
}

// Sync runs a full mailbox sync. A run superseded by a newer sync request,
// or abandoned by the client, answers 499 rather than an error.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	synced, err := h.mail.Sync(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, gmail.ErrSyncCancelled):
			w.WriteHeader(StatusClientClosedRequest)
		case errors.Is(err, gmail.ErrNotConnected):
			http.Error(w, "Google account not connected", http.StatusBadRequest)
		default:
			log.Printf("SyncHandler: Failed to sync: %v", err)
			http.Error(w, "Failed to sync emails", http.StatusInternalServerError)
		}
		return
	}

	WriteJSONResponse(w, models.SyncResponse{Synced: synced})
}
