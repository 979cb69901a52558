package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/gmail"
)

// WatchHandler registers Gmail push notifications for a user's inbox.
type WatchHandler struct {
	pool  *pgxpool.Pool
	mail  gmail.MailService
	topic string
}

// NewWatchHandler creates a new WatchHandler instance.
func NewWatchHandler(pool *pgxpool.Pool, mail gmail.MailService, topic string) *WatchHandler {
	return &WatchHandler{pool: pool, mail: mail, topic: topic}
}

// Watch asks Gmail to publish inbox changes to the configured Pub/Sub topic.
// The registration expires after about a week, so clients re-post it.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	if h.topic == "" {
		http.Error(w, "Push notifications are not configured", http.StatusNotImplemented)
		return
	}

	res, err := h.mail.Watch(ctx, userID, h.topic)
	if err != nil {
		if errors.Is(err, gmail.ErrNotConnected) {
			http.Error(w, "Google account not connected", http.StatusBadRequest)
			return
		}
		log.Printf("WatchHandler: Failed to register watch: %v", err)
		http.Error(w, "Failed to register watch", http.StatusInternalServerError)
		return
	}

	WriteJSONResponse(w, map[string]any{
		"historyId":  res.HistoryId,
		"expiration": res.Expiration,
	})
}
