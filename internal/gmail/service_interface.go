package gmail

import (
	"context"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/models"
)

// MailService defines the Gmail-backed operations handlers depend on.
// This interface allows handlers to be tested with fake implementations.
type MailService interface {
	// Sync runs a full sync, superseding any sync already in flight for
	// the user.
	Sync(ctx context.Context, userID string) (int, error)

	// SyncChanges runs an incremental sync under the same single-flight
	// rules as Sync.
	SyncChanges(ctx context.Context, userID string) (int, error)

	// Syncing reports whether a sync is in flight for the user.
	Syncing(userID string) bool

	// SyncSearch caches remote search hits for the filter.
	SyncSearch(ctx context.Context, userID string, filter *models.EmailFilter) (int, error)

	// SyncThread caches every message of a thread.
	SyncThread(ctx context.Context, userID, threadID string) (int, error)

	// Send submits an email, optionally as a threaded reply.
	Send(ctx context.Context, userID string, req *models.SendRequest) (string, error)

	// MarkRead updates the UNREAD label on the remote message.
	MarkRead(ctx context.Context, userID, id string, read bool) error

	// Watch registers the inbox with a Pub/Sub topic.
	Watch(ctx context.Context, userID, topicName string) (*gmailapi.WatchResponse, error)

	// IsConnected reports whether the user has a Google credential.
	IsConnected(ctx context.Context, userID string) (bool, error)
}

// Ensure Service implements MailService
var _ MailService = (*Service)(nil)
