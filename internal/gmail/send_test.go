package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/models"
	"github.com/finchmail/finch/internal/testutil"
)

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	return string(decoded)
}

func TestSendValidation(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := db.GetOrCreateUser(ctx, pool, "sendval@example.com")
	require.NoError(t, err)

	svc := newTestService(t, pool, &fakeMailbox{})

	tests := []struct {
		name string
		req  *models.SendRequest
	}{
		{"missing to", &models.SendRequest{Subject: "hi", Body: "b"}},
		{"missing subject", &models.SendRequest{To: "a@b.com", Body: "b"}},
		{"missing both", &models.SendRequest{Body: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, userID, tt.req)
			assert.True(t, errors.Is(err, ErrMissingFields))
		})
	}
}

func TestSendBuildsRawMessage(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := db.GetOrCreateUser(ctx, pool, "sendraw@example.com")
	require.NoError(t, err)

	fake := &fakeMailbox{sentID: "sent-1"}
	svc := newTestService(t, pool, fake)

	id, err := svc.Send(ctx, userID, &models.SendRequest{
		To:      "to@example.com",
		Cc:      "cc@example.com",
		Subject: "Greetings",
		Body:    "Hello there",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", id)
	assert.Equal(t, "", fake.sentThreadID)

	raw := decodeRaw(t, fake.sentRaw)
	assert.Contains(t, raw, "To: to@example.com\r\n")
	assert.Contains(t, raw, "Cc: cc@example.com\r\n")
	assert.Contains(t, raw, "Subject: Greetings\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, raw, "\r\n\r\nHello there")
	assert.NotContains(t, raw, "Bcc:")
	assert.NotContains(t, raw, "In-Reply-To:")
}

func TestSendReplyThreading(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := db.GetOrCreateUser(ctx, pool, "sendreply@example.com")
	require.NoError(t, err)

	original := &models.Message{
		ID:       "orig-1",
		ThreadID: "thread-9",
		UserID:   userID,
		Subject:  "Original",
	}
	require.NoError(t, db.UpsertMessage(ctx, pool, original))

	t.Run("reply carries thread and headers", func(t *testing.T) {
		fake := &fakeMailbox{sentID: "sent-2", messageIDHeader: "<orig@mail.example.com>"}
		svc := newTestService(t, pool, fake)

		_, err := svc.Send(ctx, userID, &models.SendRequest{
			To:        "to@example.com",
			Subject:   "Re: Original",
			Body:      "replying",
			ReplyToID: "orig-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "thread-9", fake.sentThreadID)

		raw := decodeRaw(t, fake.sentRaw)
		assert.Contains(t, raw, "In-Reply-To: <orig@mail.example.com>\r\n")
		assert.Contains(t, raw, "References: <orig@mail.example.com>\r\n")
	})

	t.Run("failed header lookup still threads by id", func(t *testing.T) {
		fake := &fakeMailbox{sentID: "sent-3", messageIDErr: errors.New("metadata fetch failed")}
		svc := newTestService(t, pool, fake)

		_, err := svc.Send(ctx, userID, &models.SendRequest{
			To:        "to@example.com",
			Subject:   "Re: Original",
			Body:      "replying",
			ReplyToID: "orig-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "thread-9", fake.sentThreadID)

		raw := decodeRaw(t, fake.sentRaw)
		assert.NotContains(t, raw, "In-Reply-To:")
	})

	t.Run("unknown original sends without thread", func(t *testing.T) {
		fake := &fakeMailbox{sentID: "sent-4"}
		svc := newTestService(t, pool, fake)

		_, err := svc.Send(ctx, userID, &models.SendRequest{
			To:        "to@example.com",
			Subject:   "Re: Gone",
			Body:      "replying",
			ReplyToID: "never-cached",
		})
		require.NoError(t, err)
		assert.Equal(t, "", fake.sentThreadID)
	})
}
