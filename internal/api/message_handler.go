package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// MessageHandler handles single-message endpoints: detail view and flag
// updates.
type MessageHandler struct {
	pool *pgxpool.Pool
	mail gmail.MailService
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(pool *pgxpool.Pool, mail gmail.MailService) *MessageHandler {
	return &MessageHandler{pool: pool, mail: mail}
}

// messageIDFromPath extracts the message id from /api/v1/messages/{id}.
func messageIDFromPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api/v1/messages/")
}

// GetMessage returns a message and its thread. Opening a message marks it
// read: locally first, then best-effort on the remote copy, so a provider
// hiccup never blocks reading. A thread with at most one cached message is
// backfilled from the provider.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	id := messageIDFromPath(r)
	if id == "" {
		http.Error(w, "message id is required", http.StatusBadRequest)
		return
	}

	email, err := db.GetMessage(ctx, h.pool, id, userID)
	if errors.Is(err, db.ErrMessageNotFound) {
		http.Error(w, "Email not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("MessageHandler: Failed to get message: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !email.IsRead {
		if err := db.SetMessageRead(ctx, h.pool, id, userID, true); err != nil {
			log.Printf("MessageHandler: Failed to mark %s read locally: %v", id, err)
		}
		if err := h.mail.MarkRead(ctx, userID, id, true); err != nil {
			log.Printf("Warning: failed to mark %s read remotely: %v", id, err)
		}
		email.IsRead = true
	}

	thread := h.loadThread(ctx, userID, email)

	WriteJSONResponse(w, models.EmailDetailResponse{Email: email, Thread: thread})
}

func (h *MessageHandler) loadThread(ctx context.Context, userID string, email *models.Message) []*models.Message {
	if email.ThreadID == "" {
		return []*models.Message{email}
	}

	thread, err := db.GetMessagesForThread(ctx, h.pool, userID, email.ThreadID)
	if err != nil {
		log.Printf("MessageHandler: Failed to load thread %s: %v", email.ThreadID, err)
		return []*models.Message{email}
	}

	// A thread with only the opened message cached probably has siblings we
	// never synced. Backfill is best-effort.
	if len(thread) <= 1 {
		if _, err := h.mail.SyncThread(ctx, userID, email.ThreadID); err != nil {
			log.Printf("Warning: failed to backfill thread %s: %v", email.ThreadID, err)
			return thread
		}

		refreshed, err := db.GetMessagesForThread(ctx, h.pool, userID, email.ThreadID)
		if err == nil {
			thread = refreshed
		}
	}

	for _, msg := range thread {
		if msg.ID == email.ID {
			msg.IsRead = email.IsRead
		}
	}

	return thread
}

type patchMessageRequest struct {
	IsRead    *bool `json:"isRead"`
	IsStarred *bool `json:"isStarred"`
}

// PatchMessage updates the read/starred flags in the local cache only. The
// remote copy is reconciled by the next sync.
func (h *MessageHandler) PatchMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	id := messageIDFromPath(r)
	if id == "" {
		http.Error(w, "message id is required", http.StatusBadRequest)
		return
	}

	var req patchMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.IsRead != nil {
		if err := db.SetMessageRead(ctx, h.pool, id, userID, *req.IsRead); err != nil {
			h.writePatchError(w, id, err)
			return
		}
	}

	if req.IsStarred != nil {
		if err := db.SetMessageStarred(ctx, h.pool, id, userID, *req.IsStarred); err != nil {
			h.writePatchError(w, id, err)
			return
		}
	}

	WriteJSONResponse(w, map[string]bool{"success": true})
}

func (h *MessageHandler) writePatchError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, db.ErrMessageNotFound) {
		http.Error(w, "Email not found", http.StatusNotFound)
		return
	}
	log.Printf("MessageHandler: Failed to update message %s: %v", id, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
