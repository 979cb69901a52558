package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/ai"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/state"
)

// AssistantHandler handles the assistant chat and confirmation endpoints.
type AssistantHandler struct {
	pool      *pgxpool.Pool
	mail      gmail.MailService
	assistant *ai.Assistant
	sessions  *state.Sessions
}

// NewAssistantHandler creates a new AssistantHandler instance.
func NewAssistantHandler(pool *pgxpool.Pool, mail gmail.MailService, assistant *ai.Assistant, sessions *state.Sessions) *AssistantHandler {
	return &AssistantHandler{pool: pool, mail: mail, assistant: assistant, sessions: sessions}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat runs the assistant loop for one user message and returns the final
// reply plus the tool-call trace. Model failures come back inside the reply,
// not as HTTP errors, so the conversation survives them.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	store := h.sessions.ForUser(userID)
	exec := ai.NewExecutor(h.pool, h.mail, store, userID)

	result := h.assistant.Chat(ctx, exec, userID, req.Message)

	WriteJSONResponse(w, result)
}

type confirmRequest struct {
	ID       string `json:"id"`
	Approved bool   `json:"approved"`
}

// Confirm resolves a pending assistant confirmation, unblocking the tool
// call that is waiting on it.
func (h *AssistantHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	store := h.sessions.ForUser(userID)
	if err := store.Resolve(req.ID, req.Approved); err != nil {
		if errors.Is(err, state.ErrNoConfirmation) {
			http.Error(w, "No pending confirmation with that id", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	WriteJSONResponse(w, map[string]bool{"success": true})
}
