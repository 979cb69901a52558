package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/models"
)

// DefaultListLimit is the number of threads returned when the caller does not
// ask for a specific page size.
const DefaultListLimit = 200

// ListEmails queries the cache and collapses the result to one row per
// thread. The newest message of each thread represents it, and MessageCount
// carries the thread size within the fetched window.
//
// The SQL limit is inflated by 3x because thread collapsing happens in Go:
// several rows of the same thread fold into one, so fetching exactly `limit`
// rows would under-fill pages for users with chatty threads.
func ListEmails(ctx context.Context, pool *pgxpool.Pool, userID string, filter *models.EmailFilter) ([]*models.Message, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, thread_id, user_id, subject, from_address, to_addresses,
			cc_addresses, bcc_addresses, sent_at, snippet, body_html, body_text,
			label_ids, is_read, is_starred
		FROM messages
		WHERE user_id = $1`)

	args := []any{userID}

	if filter.Label != "" {
		args = append(args, "%"+filter.Label+"%")
		fmt.Fprintf(&sb, " AND label_ids LIKE $%d", len(args))
	}

	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		n := len(args)
		fmt.Fprintf(&sb,
			" AND (subject ILIKE $%d OR body_text ILIKE $%d OR from_address ILIKE $%d OR snippet ILIKE $%d)",
			n, n, n, n)
	}

	if filter.From != "" {
		args = append(args, "%"+filter.From+"%")
		fmt.Fprintf(&sb, " AND from_address ILIKE $%d", len(args))
	}

	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		fmt.Fprintf(&sb, " AND sent_at >= $%d::date", len(args))
	}

	if filter.DateTo != "" {
		// Inclusive through the end of the named day.
		args = append(args, filter.DateTo)
		fmt.Fprintf(&sb, " AND sent_at < $%d::date + interval '1 day'", len(args))
	}

	if filter.IsRead != nil {
		args = append(args, *filter.IsRead)
		fmt.Fprintf(&sb, " AND is_read = $%d", len(args))
	}

	args = append(args, limit*3)
	fmt.Fprintf(&sb, " ORDER BY sent_at DESC NULLS LAST LIMIT $%d", len(args))

	args = append(args, offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	rows, err := pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var fetched []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email row: %w", err)
		}
		fetched = append(fetched, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read email rows: %w", err)
	}

	return collapseThreads(fetched, limit), nil
}

// collapseThreads keeps the first row seen per thread (the newest, given the
// DESC ordering) and counts the rest into MessageCount. Messages with no
// thread id group by their own id, so they never collapse with each other.
func collapseThreads(messages []*models.Message, limit int) []*models.Message {
	var collapsed []*models.Message
	index := make(map[string]*models.Message)

	for _, msg := range messages {
		key := msg.ThreadID
		if key == "" {
			key = msg.ID
		}

		if head, seen := index[key]; seen {
			head.MessageCount++
			continue
		}

		msg.MessageCount = 1
		index[key] = msg
		collapsed = append(collapsed, msg)
	}

	if len(collapsed) > limit {
		collapsed = collapsed[:limit]
	}

	return collapsed
}
