package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchmail/finch/internal/models"
	"github.com/finchmail/finch/internal/testutil"
)

func TestListEmailsThreadCollapse(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := GetOrCreateUser(ctx, pool, "collapse@example.com")
	require.NoError(t, err)

	// Three messages in one thread plus one standalone. The list should
	// show two rows: the thread's newest message (with count 3) and the
	// standalone.
	for i := 0; i < 3; i++ {
		msg := newTestMessage(userID, fmt.Sprintf("conv-%d", i), "thread-conv")
		sent := time.Date(2025, 6, 1, 10+i, 0, 0, 0, time.UTC)
		msg.Date = &sent
		msg.Subject = fmt.Sprintf("Conversation %d", i)
		require.NoError(t, UpsertMessage(ctx, pool, msg))
	}

	standalone := newTestMessage(userID, "solo-1", "thread-solo")
	sent := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	standalone.Date = &sent
	require.NoError(t, UpsertMessage(ctx, pool, standalone))

	emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 2)

	assert.Equal(t, "conv-2", emails[0].ID)
	assert.Equal(t, 3, emails[0].MessageCount)
	assert.Equal(t, "solo-1", emails[1].ID)
	assert.Equal(t, 1, emails[1].MessageCount)
}

func TestListEmailsFilters(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := GetOrCreateUser(ctx, pool, "filters@example.com")
	require.NoError(t, err)

	mk := func(id, threadID, subject, from, labels string, isRead bool, sentAt time.Time) {
		msg := newTestMessage(userID, id, threadID)
		msg.Subject = subject
		msg.From = from
		msg.LabelIDs = labels
		msg.IsRead = isRead
		msg.BodyText = "body of " + subject
		msg.Date = &sentAt
		require.NoError(t, UpsertMessage(ctx, pool, msg))
	}

	mk("f-1", "t-1", "Quarterly Report", "alice@corp.com", "INBOX", false, time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC))
	mk("f-2", "t-2", "Lunch plans", "bob@food.com", "INBOX,UNREAD", false, time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC))
	mk("f-3", "t-3", "Re: report draft", "alice@corp.com", "SENT", true, time.Date(2025, 5, 25, 8, 0, 0, 0, time.UTC))

	t.Run("keyword matches subject case-insensitively", func(t *testing.T) {
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{Keyword: "REPORT"})
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("from filter", func(t *testing.T) {
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{From: "alice"})
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("label filter", func(t *testing.T) {
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{Label: "SENT"})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "f-3", emails[0].ID)
	})

	t.Run("isRead filter", func(t *testing.T) {
		isRead := false
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{IsRead: &isRead})
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("date range is inclusive of the end day", func(t *testing.T) {
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{
			DateFrom: "2025-05-15",
			DateTo:   "2025-05-25",
		})
		require.NoError(t, err)
		assert.Len(t, emails, 2)
	})

	t.Run("combined filters narrow results", func(t *testing.T) {
		emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{
			Keyword: "report",
			From:    "alice",
			Label:   "INBOX",
		})
		require.NoError(t, err)
		require.Len(t, emails, 1)
		assert.Equal(t, "f-1", emails[0].ID)
	})
}

func TestListEmailsUserScoping(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	alice, err := GetOrCreateUser(ctx, pool, "alice-scope@example.com")
	require.NoError(t, err)
	bob, err := GetOrCreateUser(ctx, pool, "bob-scope@example.com")
	require.NoError(t, err)

	require.NoError(t, UpsertMessage(ctx, pool, newTestMessage(alice, "alice-msg", "t-a")))
	require.NoError(t, UpsertMessage(ctx, pool, newTestMessage(bob, "bob-msg", "t-b")))

	emails, err := ListEmails(ctx, pool, alice, &models.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "alice-msg", emails[0].ID)
}

func TestListEmailsLimit(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := GetOrCreateUser(ctx, pool, "limit@example.com")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		msg := newTestMessage(userID, fmt.Sprintf("lim-%d", i), fmt.Sprintf("t-lim-%d", i))
		sent := time.Date(2025, 6, 1, i, 0, 0, 0, time.UTC)
		msg.Date = &sent
		require.NoError(t, UpsertMessage(ctx, pool, msg))
	}

	emails, err := ListEmails(ctx, pool, userID, &models.EmailFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, emails, 2)

	// Newest first.
	assert.Equal(t, "lim-4", emails[0].ID)
	assert.Equal(t, "lim-3", emails[1].ID)
}

func TestCollapseThreads(t *testing.T) {
	sent := time.Now()

	msg := func(id, threadID string) *models.Message {
		return &models.Message{ID: id, ThreadID: threadID, Date: &sent}
	}

	t.Run("empty thread id groups by message id", func(t *testing.T) {
		collapsed := collapseThreads([]*models.Message{msg("a", ""), msg("b", "")}, 10)
		require.Len(t, collapsed, 2)
		assert.Equal(t, 1, collapsed[0].MessageCount)
	})

	t.Run("first row per thread wins", func(t *testing.T) {
		collapsed := collapseThreads([]*models.Message{msg("new", "t"), msg("old", "t")}, 10)
		require.Len(t, collapsed, 1)
		assert.Equal(t, "new", collapsed[0].ID)
		assert.Equal(t, 2, collapsed[0].MessageCount)
	})

	t.Run("truncates to limit after collapsing", func(t *testing.T) {
		collapsed := collapseThreads([]*models.Message{
			msg("a", "t1"), msg("b", "t2"), msg("c", "t3"),
		}, 2)
		assert.Len(t, collapsed, 2)
	})
}
