package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/auth"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
)

// createRequestWithUser creates an HTTP request with user email in context.
func createRequestWithUser(method, url, email string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	ctx := context.WithValue(req.Context(), auth.UserEmailKey, email)
	return req.WithContext(ctx)
}

// VerifyAuthCheck verifies that the handler returns 401 Unauthorized when no user is in context.
func VerifyAuthCheck(t *testing.T, handlerFunc http.HandlerFunc, method, url string) {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	rr := httptest.NewRecorder()
	handlerFunc(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 when no user email in context")
}

// fakeMailService is a scriptable gmail.MailService for handler tests.
type fakeMailService struct {
	syncCount int
	syncErr   error

	searchCalls int
	searchErr   error

	sendID  string
	sendErr error

	markReadErr error

	watchRes *gmailapi.WatchResponse
	watchErr error

	connected    bool
	connectedErr error
}

var _ gmail.MailService = (*fakeMailService)(nil)

func (f *fakeMailService) Sync(context.Context, string) (int, error) {
	return f.syncCount, f.syncErr
}

func (f *fakeMailService) SyncChanges(context.Context, string) (int, error) {
	return f.syncCount, f.syncErr
}

func (f *fakeMailService) Syncing(string) bool { return false }

func (f *fakeMailService) SyncSearch(context.Context, string, *models.EmailFilter) (int, error) {
	f.searchCalls++
	return 0, f.searchErr
}

func (f *fakeMailService) SyncThread(context.Context, string, string) (int, error) {
	return 0, nil
}

func (f *fakeMailService) Send(_ context.Context, _ string, req *models.SendRequest) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	if req.To == "" || req.Subject == "" {
		return "", gmail.ErrMissingFields
	}
	return f.sendID, nil
}

func (f *fakeMailService) MarkRead(context.Context, string, string, bool) error {
	return f.markReadErr
}

func (f *fakeMailService) Watch(context.Context, string, string) (*gmailapi.WatchResponse, error) {
	return f.watchRes, f.watchErr
}

func (f *fakeMailService) IsConnected(context.Context, string) (bool, error) {
	return f.connected, f.connectedErr
}
