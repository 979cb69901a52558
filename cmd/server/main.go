package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/ai"
	"github.com/finchmail/finch/internal/api"
	"github.com/finchmail/finch/internal/auth"
	"github.com/finchmail/finch/internal/config"
	"github.com/finchmail/finch/internal/crypto"
	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/state"
	ws "github.com/finchmail/finch/internal/websocket"
)

// pollInterval is how often connected users get a background incremental
// sync.
const pollInterval = 60 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseConnection(pool)

	log.Printf("Successfully connected to database")

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKeyBase64)
	if err != nil {
		log.Fatalf("Failed to create encryptor: %v", err)
	}

	model, err := ai.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	mailService := gmail.NewService(pool, encryptor, cfg.GoogleClientID, cfg.GoogleClientSecret)
	wsHub := ws.NewHub(10)

	server := NewServer(cfg, pool, mailService, model, wsHub)

	go runBackgroundSync(ctx, mailService, wsHub)

	address := ":" + cfg.Port
	log.Printf("Finch backend server starting on %s (environment: %s)", address, cfg.Environment)

	if err := http.ListenAndServe(address, server); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// NewServer creates and returns a new HTTP handler for the Finch API server.
func NewServer(cfg *config.Config, dbPool *pgxpool.Pool, mailService gmail.MailService, model ai.Model, wsHub *ws.Hub) http.Handler {
	assistant := ai.NewAssistant(model)
	sessions := state.NewSessions()

	authHandler := api.NewAuthHandler(dbPool, mailService)
	messagesHandler := api.NewMessagesHandler(dbPool, mailService)
	messageHandler := api.NewMessageHandler(dbPool, mailService)
	sendHandler := api.NewSendHandler(dbPool, mailService)
	syncHandler := api.NewSyncHandler(dbPool, mailService)
	assistantHandler := api.NewAssistantHandler(dbPool, mailService, assistant, sessions)
	wsHandler := api.NewWebSocketHandler(dbPool, wsHub)
	watchHandler := api.NewWatchHandler(dbPool, mailService, cfg.PubSubTopic)

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)

	mux.Handle("/api/v1/auth/status", auth.RequireAuth(http.HandlerFunc(authHandler.GetAuthStatus)))
	mux.Handle("/api/v1/messages", auth.RequireAuth(http.HandlerFunc(messagesHandler.GetMessages)))
	mux.Handle("/api/v1/messages/", auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			messageHandler.GetMessage(w, r)
		case http.MethodPatch:
			messageHandler.PatchMessage(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/v1/send", auth.RequireAuth(postOnly(sendHandler.SendMessage)))
	mux.Handle("/api/v1/sync", auth.RequireAuth(postOnly(syncHandler.Sync)))
	mux.Handle("/api/v1/assistant/chat", auth.RequireAuth(postOnly(assistantHandler.Chat)))
	mux.Handle("/api/v1/assistant/confirm", auth.RequireAuth(postOnly(assistantHandler.Confirm)))
	mux.Handle("/api/v1/watch", auth.RequireAuth(postOnly(watchHandler.Watch)))
	// WebSocket handler handles its own authentication via query parameter
	// (since browsers can't set headers on WebSocket connections).
	mux.Handle("/api/v1/ws", http.HandlerFunc(wsHandler.Handle))

	return mux
}

func postOnly(handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	})
}

// runBackgroundSync keeps connected users fresh: every tick, each user with
// an open WebSocket gets an incremental sync and a push. A user whose sync
// is still running is skipped rather than superseded.
func runBackgroundSync(ctx context.Context, mailService gmail.MailService, hub *ws.Hub) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, userID := range hub.ConnectedUsers() {
			if mailService.Syncing(userID) {
				continue
			}

			synced, err := mailService.SyncChanges(ctx, userID)
			if err != nil {
				log.Printf("Warning: background sync failed for user %s: %v", userID, err)
				continue
			}

			if synced > 0 {
				hub.Send(userID, []byte(`{"type":"mailbox_updated"}`))
			}
		}
	}
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Finch API is running")
}
