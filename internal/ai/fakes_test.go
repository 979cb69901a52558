package ai

import (
	"context"
	"errors"
	"sync"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// fakeMail is a scriptable gmail.MailService for executor tests.
type fakeMail struct {
	mu sync.Mutex

	sendID   string
	sendErr  error
	lastSend *models.SendRequest
	sends    int

	lastSearch      *models.EmailFilter
	searchCalls     int
	syncThreadCalls int
	markedRead      []string
}

var _ gmail.MailService = (*fakeMail)(nil)

func (f *fakeMail) Sync(context.Context, string) (int, error)        { return 0, nil }
func (f *fakeMail) SyncChanges(context.Context, string) (int, error) { return 0, nil }
func (f *fakeMail) Syncing(string) bool                              { return false }

func (f *fakeMail) SyncSearch(_ context.Context, _ string, filter *models.EmailFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	copied := *filter
	f.lastSearch = &copied
	return 0, nil
}

func (f *fakeMail) SyncThread(context.Context, string, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncThreadCalls++
	return 0, nil
}

func (f *fakeMail) Send(_ context.Context, _ string, req *models.SendRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	f.lastSend = req
	return f.sendID, f.sendErr
}

func (f *fakeMail) MarkRead(_ context.Context, _, id string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if read {
		f.markedRead = append(f.markedRead, id)
	}
	return nil
}

func (f *fakeMail) Watch(context.Context, string, string) (*gmailapi.WatchResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMail) IsConnected(context.Context, string) (bool, error) {
	return true, nil
}
