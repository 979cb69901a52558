package models

import "time"

// Message is a locally cached Gmail message, flattened from the provider's
// nested representation. Empty strings stand for headers the message did not
// carry; Date is nil when the Date header was missing or unparseable.
type Message struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"threadId"`
	UserID    string     `json:"-"`
	Subject   string     `json:"subject"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Cc        string     `json:"cc"`
	Bcc       string     `json:"bcc"`
	Date      *time.Time `json:"date"`
	Snippet   string     `json:"snippet"`
	Body      string     `json:"body"`     // sanitized HTML
	BodyText  string     `json:"bodyText"` // plain text
	LabelIDs  string     `json:"labelIds"` // comma-joined Gmail label tokens
	IsRead    bool       `json:"isRead"`
	IsStarred bool       `json:"isStarred"`

	// MessageCount is the number of messages in this message's thread.
	// Only populated on list results, where one row represents the thread.
	MessageCount int `json:"messageCount,omitempty"`
}

// EmailFilter is the transient, request-scoped query for listing emails.
// Zero values mean "no constraint"; IsRead uses a pointer so that false is a
// real filter.
type EmailFilter struct {
	Keyword  string
	From     string
	DateFrom string // YYYY-MM-DD
	DateTo   string // YYYY-MM-DD, inclusive through end of day
	IsRead   *bool
	Label    string
	Limit    int
	Offset   int
}

// HasSearch reports whether the filter carries terms that should be pushed to
// the provider's search before the local query runs.
func (f *EmailFilter) HasSearch() bool {
	return f.Keyword != "" || f.From != "" || f.DateFrom != "" || f.DateTo != ""
}

// SendRequest is the payload for sending an email.
type SendRequest struct {
	To        string `json:"to"`
	Cc        string `json:"cc,omitempty"`
	Bcc       string `json:"bcc,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// SendResponse is returned after a successful send.
type SendResponse struct {
	MessageID string `json:"messageId"`
}

// SyncResponse reports how many messages a sync pass touched.
type SyncResponse struct {
	Synced int `json:"synced"`
}

// EmailListResponse wraps a thread-deduplicated list of messages.
type EmailListResponse struct {
	Emails []*Message `json:"emails"`
}

// EmailDetailResponse carries a single message plus its full thread.
type EmailDetailResponse struct {
	Email  *Message   `json:"email"`
	Thread []*Message `json:"thread"`
}
