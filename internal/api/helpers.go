package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/auth"
	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/models"
)

// StatusClientClosedRequest is the nginx convention for a request the client
// abandoned. Returned when a sync is cancelled or superseded.
const StatusClientClosedRequest = 499

// GetUserIDFromContext extracts the user's email from context, resolves/creates the DB user,
// and writes appropriate HTTP errors when it fails. Returns (userID, true) on success.
func GetUserIDFromContext(ctx context.Context, w http.ResponseWriter, pool *pgxpool.Pool) (string, bool) {
	email, ok := auth.GetUserEmailFromContext(ctx)
	if !ok {
		log.Println("API: No user email in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}

	userID, err := db.GetOrCreateUser(ctx, pool, email)
	if err != nil {
		log.Printf("API: Failed to get/create user: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return "", false
	}

	return userID, true
}

// WriteJSONResponse encodes the response as JSON. Returns false when encoding
// failed and an error was already written.
func WriteJSONResponse(w http.ResponseWriter, response any) bool {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("API: Failed to encode response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
	return true
}

// ParseEmailFilter reads the list/search query parameters. Missing or
// malformed values fall back to their defaults.
func ParseEmailFilter(r *http.Request) *models.EmailFilter {
	q := r.URL.Query()

	filter := &models.EmailFilter{
		Keyword:  q.Get("keyword"),
		From:     q.Get("from"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Label:    q.Get("label"),
	}

	switch q.Get("isRead") {
	case "true":
		isRead := true
		filter.IsRead = &isRead
	case "false":
		isRead := false
		filter.IsRead = &isRead
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed > 0 {
			filter.Offset = parsed
		}
	}

	return filter
}
