package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/models"
)

// ErrMessageNotFound is returned when a message does not exist for the user.
var ErrMessageNotFound = errors.New("message not found")

// UpsertMessage inserts or replaces a cached message. The Gmail message id is
// the primary key, so re-syncing the same message is idempotent.
func UpsertMessage(ctx context.Context, pool *pgxpool.Pool, msg *models.Message) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO messages (
			id, user_id, thread_id, subject, from_address, to_addresses,
			cc_addresses, bcc_addresses, sent_at, snippet, body_html, body_text,
			label_ids, is_read, is_starred
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			subject = EXCLUDED.subject,
			from_address = EXCLUDED.from_address,
			to_addresses = EXCLUDED.to_addresses,
			cc_addresses = EXCLUDED.cc_addresses,
			bcc_addresses = EXCLUDED.bcc_addresses,
			sent_at = EXCLUDED.sent_at,
			snippet = EXCLUDED.snippet,
			body_html = EXCLUDED.body_html,
			body_text = EXCLUDED.body_text,
			label_ids = EXCLUDED.label_ids,
			is_read = EXCLUDED.is_read,
			is_starred = EXCLUDED.is_starred,
			updated_at = now()
	`,
		msg.ID, msg.UserID, msg.ThreadID, msg.Subject, msg.From, msg.To,
		msg.Cc, msg.Bcc, msg.Date, msg.Snippet, msg.Body, msg.BodyText,
		msg.LabelIDs, msg.IsRead, msg.IsStarred,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
	}

	return nil
}

// GetMessage returns a single cached message scoped to the user.
func GetMessage(ctx context.Context, pool *pgxpool.Pool, id, userID string) (*models.Message, error) {
	row := pool.QueryRow(ctx, `
		SELECT id, thread_id, user_id, subject, from_address, to_addresses,
			cc_addresses, bcc_addresses, sent_at, snippet, body_html, body_text,
			label_ids, is_read, is_starred
		FROM messages
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return msg, nil
}

// GetMessagesForThread returns all cached messages in a thread, oldest first.
func GetMessagesForThread(ctx context.Context, pool *pgxpool.Pool, userID, threadID string) ([]*models.Message, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, thread_id, user_id, subject, from_address, to_addresses,
			cc_addresses, bcc_addresses, sent_at, snippet, body_html, body_text,
			label_ids, is_read, is_starred
		FROM messages
		WHERE user_id = $1 AND thread_id = $2
		ORDER BY sent_at ASC NULLS LAST
	`, userID, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread rows: %w", err)
	}

	return messages, nil
}

// DeleteMessage removes a cached message. Deleting a message that is not
// cached is not an error.
func DeleteMessage(ctx context.Context, pool *pgxpool.Pool, id string) error {
	_, err := pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}

	return nil
}

// SetMessageRead updates the cached read flag for a message.
func SetMessageRead(ctx context.Context, pool *pgxpool.Pool, id, userID string, isRead bool) error {
	tag, err := pool.Exec(ctx, `
		UPDATE messages
		SET is_read = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, isRead)

	if err != nil {
		return fmt.Errorf("failed to set read flag on %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// SetMessageStarred updates the cached starred flag for a message.
func SetMessageStarred(ctx context.Context, pool *pgxpool.Pool, id, userID string, isStarred bool) error {
	tag, err := pool.Exec(ctx, `
		UPDATE messages
		SET is_starred = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID, isStarred)

	if err != nil {
		return fmt.Errorf("failed to set starred flag on %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message

	err := row.Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.UserID,
		&msg.Subject,
		&msg.From,
		&msg.To,
		&msg.Cc,
		&msg.Bcc,
		&msg.Date,
		&msg.Snippet,
		&msg.Body,
		&msg.BodyText,
		&msg.LabelIDs,
		&msg.IsRead,
		&msg.IsStarred,
	)
	if err != nil {
		return nil, err
	}

	return &msg, nil
}
