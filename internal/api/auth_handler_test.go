package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchmail/finch/internal/models"
	"github.com/finchmail/finch/internal/testutil"
)

func TestAuthHandler_GetAuthStatus(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	t.Run("returns 401 when no user email in context", func(t *testing.T) {
		handler := NewAuthHandler(pool, &fakeMailService{})
		VerifyAuthCheck(t, handler.GetAuthStatus, "GET", "/api/v1/auth/status")
	})

	t.Run("reports mailbox not connected", func(t *testing.T) {
		handler := NewAuthHandler(pool, &fakeMailService{connected: false})

		req := createRequestWithUser("GET", "/api/v1/auth/status", "noaccount@example.com", nil)
		rr := httptest.NewRecorder()
		handler.GetAuthStatus(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response models.AuthStatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.True(t, response.IsAuthenticated)
		assert.False(t, response.IsMailboxConnected)
	})

	t.Run("reports mailbox connected", func(t *testing.T) {
		handler := NewAuthHandler(pool, &fakeMailService{connected: true})

		req := createRequestWithUser("GET", "/api/v1/auth/status", "connected@example.com", nil)
		rr := httptest.NewRecorder()
		handler.GetAuthStatus(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response models.AuthStatusResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
		assert.True(t, response.IsMailboxConnected)
	})

	t.Run("returns 500 when the credential check fails", func(t *testing.T) {
		handler := NewAuthHandler(pool, &fakeMailService{connectedErr: errors.New("db down")})

		req := createRequestWithUser("GET", "/api/v1/auth/status", "err@example.com", nil)
		rr := httptest.NewRecorder()
		handler.GetAuthStatus(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
