package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/testutil"
)

func TestWatchHandler_Watch(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	t.Run("returns 401 when no user email in context", func(t *testing.T) {
		handler := NewWatchHandler(pool, &fakeMailService{}, "projects/p/topics/mail")
		VerifyAuthCheck(t, handler.Watch, "POST", "/api/v1/watch")
	})

	t.Run("returns 501 when no topic is configured", func(t *testing.T) {
		handler := NewWatchHandler(pool, &fakeMailService{}, "")

		req := createRequestWithUser("POST", "/api/v1/watch", "watch@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Watch(rr, req)

		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})

	t.Run("registers the watch", func(t *testing.T) {
		mail := &fakeMailService{
			watchRes: &gmailapi.WatchResponse{HistoryId: 123, Expiration: 456},
		}
		handler := NewWatchHandler(pool, mail, "projects/p/topics/mail")

		req := createRequestWithUser("POST", "/api/v1/watch", "watch@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Watch(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Equal(t, float64(123), response["historyId"])
		assert.Equal(t, float64(456), response["expiration"])
	})

	t.Run("returns 400 when account is not connected", func(t *testing.T) {
		handler := NewWatchHandler(pool, &fakeMailService{watchErr: gmail.ErrNotConnected}, "projects/p/topics/mail")

		req := createRequestWithUser("POST", "/api/v1/watch", "watch@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Watch(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
