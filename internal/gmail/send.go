package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/models"
)

// ErrMissingFields is returned when a send request lacks a recipient or a
// subject.
var ErrMissingFields = errors.New("to and subject are required")

// Send builds an RFC 2822 message and submits it through Gmail. When
// ReplyToID names a cached message, the reply is attached to that message's
// thread and carries In-Reply-To/References headers so other clients thread
// it correctly too.
func (s *Service) Send(ctx context.Context, userID string, req *models.SendRequest) (string, error) {
	if req.To == "" || req.Subject == "" {
		return "", ErrMissingFields
	}

	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return "", err
	}

	var threadID, inReplyTo string
	if req.ReplyToID != "" {
		original, err := db.GetMessage(ctx, s.pool, req.ReplyToID, userID)
		if err != nil && !errors.Is(err, db.ErrMessageNotFound) {
			return "", err
		}
		if original != nil {
			threadID = original.ThreadID
		}

		// Best effort: a reply without these headers still lands in the
		// right Gmail thread via threadID.
		inReplyTo, err = mbox.GetMessageIDHeader(ctx, req.ReplyToID)
		if err != nil {
			log.Printf("Warning: failed to fetch Message-ID of %s for reply headers: %v", req.ReplyToID, err)
			inReplyTo = ""
		}
	}

	raw := buildRawMessage(req, inReplyTo)

	id, err := mbox.Send(ctx, raw, threadID)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("SendService: user %s sent message %s", userID, id)

	return id, nil
}

// buildRawMessage renders the request as a base64url-encoded RFC 2822
// message. Gmail fills in the From header from the authenticated account.
func buildRawMessage(req *models.SendRequest, inReplyTo string) string {
	var sb strings.Builder

	sb.WriteString("To: " + req.To + "\r\n")
	sb.WriteString("Subject: " + req.Subject + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")

	if req.Cc != "" {
		sb.WriteString("Cc: " + req.Cc + "\r\n")
	}
	if req.Bcc != "" {
		sb.WriteString("Bcc: " + req.Bcc + "\r\n")
	}
	if inReplyTo != "" {
		sb.WriteString("In-Reply-To: " + inReplyTo + "\r\n")
		sb.WriteString("References: " + inReplyTo + "\r\n")
	}

	sb.WriteString("\r\n")
	sb.WriteString(req.Body)

	return base64.RawURLEncoding.EncodeToString([]byte(sb.String()))
}
