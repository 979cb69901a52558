package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
	"github.com/finchmail/finch/internal/testutil"
)

func TestSyncHandler_Sync(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	t.Run("returns 401 when no user email in context", func(t *testing.T) {
		handler := NewSyncHandler(pool, &fakeMailService{})
		VerifyAuthCheck(t, handler.Sync, "POST", "/api/v1/sync")
	})

	t.Run("returns the synced count", func(t *testing.T) {
		handler := NewSyncHandler(pool, &fakeMailService{syncCount: 17})

		req := createRequestWithUser("POST", "/api/v1/sync", "sync@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Sync(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response models.SyncResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.Equal(t, 17, response.Synced)
	})

	t.Run("returns 499 when the sync was superseded", func(t *testing.T) {
		handler := NewSyncHandler(pool, &fakeMailService{syncErr: gmail.ErrSyncCancelled})

		req := createRequestWithUser("POST", "/api/v1/sync", "sync@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Sync(rr, req)

		assert.Equal(t, StatusClientClosedRequest, rr.Code)
	})

	t.Run("returns 400 when account is not connected", func(t *testing.T) {
		handler := NewSyncHandler(pool, &fakeMailService{syncErr: gmail.ErrNotConnected})

		req := createRequestWithUser("POST", "/api/v1/sync", "sync@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Sync(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 500 on provider failure", func(t *testing.T) {
		handler := NewSyncHandler(pool, &fakeMailService{syncErr: errors.New("backend exploded")})

		req := createRequestWithUser("POST", "/api/v1/sync", "sync@example.com", nil)
		rr := httptest.NewRecorder()
		handler.Sync(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
