package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/models"
)

// htmlPolicy strips scripts, event handlers, and other active content from
// message bodies before they are cached. The cached body is served to the
// browser as-is, so sanitization has to happen here.
var htmlPolicy = bluemonday.UGCPolicy()

// ParseMessage flattens a full-format Gmail message into the cached model.
// Missing headers become empty strings, an unparseable Date header becomes a
// nil Date, and a body part that fails to decode is skipped. UserID is left
// for the caller to fill in.
func ParseMessage(msg *gmailapi.Message) *models.Message {
	var headers []*gmailapi.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	html, text := extractBody(msg.Payload)
	if html != "" {
		html = htmlPolicy.Sanitize(html)
	}

	labels := msg.LabelIds

	return &models.Message{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Subject:   getHeader(headers, "Subject"),
		From:      getHeader(headers, "From"),
		To:        getHeader(headers, "To"),
		Cc:        getHeader(headers, "Cc"),
		Bcc:       getHeader(headers, "Bcc"),
		Date:      parseDate(getHeader(headers, "Date")),
		Snippet:   msg.Snippet,
		Body:      html,
		BodyText:  text,
		LabelIDs:  strings.Join(labels, ","),
		IsRead:    !hasLabel(labels, "UNREAD"),
		IsStarred: hasLabel(labels, "STARRED"),
	}
}

// getHeader returns the first header whose name matches case-insensitively,
// or "" when absent.
func getHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}

	t, err := mail.ParseDate(value)
	if err != nil {
		return nil
	}

	return &t
}

// extractBody walks the MIME part tree depth-first and returns the HTML and
// plain-text bodies. When a message carries several parts of the same type,
// the last one found wins, matching how most multipart/alternative messages
// order their parts.
func extractBody(payload *gmailapi.MessagePart) (html, text string) {
	if payload == nil {
		return "", ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		switch payload.MimeType {
		case "text/html":
			if decoded, ok := decodeBody(payload.Body.Data); ok {
				html = decoded
			}
		case "text/plain":
			if decoded, ok := decodeBody(payload.Body.Data); ok {
				text = decoded
			}
		}
	}

	for _, part := range payload.Parts {
		nestedHTML, nestedText := extractBody(part)
		if nestedHTML != "" {
			html = nestedHTML
		}
		if nestedText != "" {
			text = nestedText
		}
	}

	return html, text
}

// decodeBody decodes the base64url body data Gmail returns. Padding varies
// between API responses, so it is stripped before decoding.
func decodeBody(data string) (string, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
