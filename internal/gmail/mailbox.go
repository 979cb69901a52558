package gmail

import (
	"context"

	gmailapi "google.golang.org/api/gmail/v1"
)

// Mailbox is the subset of the Gmail API the sync engine and handlers need.
// The concrete implementation is Client; tests substitute fakes.
type Mailbox interface {
	// ListMessageIDs returns up to max message ids carrying the label,
	// newest first.
	ListMessageIDs(ctx context.Context, labelID string, max int64) ([]string, error)

	// Search returns up to max message ids matching a Gmail query string.
	Search(ctx context.Context, query string, max int64) ([]string, error)

	// GetMessage fetches a message in full format.
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)

	// GetMessageIDHeader fetches only the Message-ID header of a message.
	// Returns "" when the message has none.
	GetMessageIDHeader(ctx context.Context, id string) (string, error)

	// GetThread fetches a thread with all its messages in full format.
	GetThread(ctx context.Context, threadID string) (*gmailapi.Thread, error)

	// History returns all history records since the cursor, plus the new
	// cursor to store.
	History(ctx context.Context, startHistoryID string) ([]*gmailapi.History, string, error)

	// Profile returns the account profile, including the current history
	// cursor.
	Profile(ctx context.Context) (*gmailapi.Profile, error)

	// Send submits a base64url-encoded RFC 2822 message. A non-empty
	// threadID attaches the message to an existing thread. Returns the id
	// of the created message.
	Send(ctx context.Context, raw, threadID string) (string, error)

	// ModifyLabels adds and removes labels on a message.
	ModifyLabels(ctx context.Context, id string, add, remove []string) error

	// Watch registers a Pub/Sub push notification channel for the inbox.
	Watch(ctx context.Context, topicName string) (*gmailapi.WatchResponse, error)
}

// Ensure Client implements Mailbox
var _ Mailbox = (*Client)(nil)
