package gmail

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/testutil"
)

// fakeMailbox is a scriptable Mailbox for sync and send tests.
type fakeMailbox struct {
	mu sync.Mutex

	labels   map[string][]string
	messages map[string]*gmailapi.Message
	getErrs  map[string]error

	histories   []*gmailapi.History
	historyNext string
	historyErr  error
	historyFrom string

	profile *gmailapi.Profile

	searchIDs   []string
	searchQuery string

	messageIDHeader string
	messageIDErr    error

	thread *gmailapi.Thread

	sentRaw      string
	sentThreadID string
	sentID       string
	sendErr      error

	modifyCalls int

	// blockFirstGet makes the first GetMessage call park until the context
	// is cancelled, signalling on started when it does.
	blockFirstGet bool
	started       chan struct{}
	getCalls      int
}

func (f *fakeMailbox) ListMessageIDs(_ context.Context, labelID string, _ int64) ([]string, error) {
	return f.labels[labelID], nil
}

func (f *fakeMailbox) Search(_ context.Context, query string, _ int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQuery = query
	return f.searchIDs, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	f.mu.Lock()
	call := f.getCalls
	f.getCalls++
	f.mu.Unlock()

	if f.blockFirstGet && call == 0 {
		f.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err := f.getErrs[id]; err != nil {
		return nil, err
	}

	msg, ok := f.messages[id]
	if !ok {
		return nil, errMessageGone
	}
	return msg, nil
}

func (f *fakeMailbox) GetMessageIDHeader(context.Context, string) (string, error) {
	return f.messageIDHeader, f.messageIDErr
}

func (f *fakeMailbox) GetThread(context.Context, string) (*gmailapi.Thread, error) {
	return f.thread, nil
}

func (f *fakeMailbox) History(_ context.Context, startHistoryID string) ([]*gmailapi.History, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyFrom = startHistoryID
	return f.histories, f.historyNext, f.historyErr
}

func (f *fakeMailbox) Profile(context.Context) (*gmailapi.Profile, error) {
	return f.profile, nil
}

func (f *fakeMailbox) Send(_ context.Context, raw, threadID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentRaw = raw
	f.sentThreadID = threadID
	return f.sentID, f.sendErr
}

func (f *fakeMailbox) ModifyLabels(context.Context, string, []string, []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modifyCalls++
	return nil
}

func (f *fakeMailbox) Watch(context.Context, string) (*gmailapi.WatchResponse, error) {
	return &gmailapi.WatchResponse{HistoryId: 1}, nil
}

var errMessageGone = &fakeFetchError{}

type fakeFetchError struct{}

func (*fakeFetchError) Error() string { return "message gone" }

// newTestService wires a Service to the test database and the given fake.
func newTestService(t *testing.T, pool *pgxpool.Pool, fake *fakeMailbox) *Service {
	t.Helper()

	svc := NewService(pool, testutil.GetTestEncryptor(t), "client-id", "client-secret")
	svc.newMailbox = func(context.Context, string) (Mailbox, error) {
		return fake, nil
	}
	return svc
}

// fullMessage builds a minimal full-format message.
func fullMessage(id, threadID, subject string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:       id,
		ThreadId: threadID,
		LabelIds: []string{"INBOX", "UNREAD"},
		Snippet:  "snippet of " + id,
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: "sender@example.com"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Date", Value: "Sun, 01 Jun 2025 12:00:00 +0000"},
			},
		},
	}
}
