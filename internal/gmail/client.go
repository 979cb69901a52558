package gmail

import (
	"context"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"golang.org/x/oauth2"
)

// Client wraps the Gmail REST API for a single user. All calls act on the
// authenticated user's own mailbox ("me").
type Client struct {
	svc *gmailapi.Service
}

// NewClient builds a Gmail client from an OAuth token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

func (c *Client) ListMessageIDs(ctx context.Context, labelID string, max int64) ([]string, error) {
	res, err := c.svc.Users.Messages.List("me").
		LabelIds(labelID).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for label %s: %w", labelID, err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}

	return ids, nil
}

func (c *Client) Search(ctx context.Context, query string, max int64) ([]string, error) {
	res, err := c.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}

	return ids, nil
}

func (c *Client) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return msg, nil
}

func (c *Client) GetMessageIDHeader(ctx context.Context, id string) (string, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("Message-ID").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get Message-ID header of %s: %w", id, err)
	}

	if msg.Payload == nil {
		return "", nil
	}

	return getHeader(msg.Payload.Headers, "Message-ID"), nil
}

func (c *Client) GetThread(ctx context.Context, threadID string) (*gmailapi.Thread, error) {
	thread, err := c.svc.Users.Threads.Get("me", threadID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}

	return thread, nil
}

// History pages through all history records since startHistoryID. The
// returned cursor comes from the final page.
func (c *Client) History(ctx context.Context, startHistoryID string) ([]*gmailapi.History, string, error) {
	start, err := parseHistoryID(startHistoryID)
	if err != nil {
		return nil, "", err
	}

	var (
		histories []*gmailapi.History
		cursor    string
		pageToken string
	)

	for {
		call := c.svc.Users.History.List("me").
			StartHistoryId(start).
			HistoryTypes("messageAdded", "messageDeleted", "labelAdded", "labelRemoved").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, "", fmt.Errorf("failed to list history: %w", err)
		}

		histories = append(histories, res.History...)
		if res.HistoryId > 0 {
			cursor = fmt.Sprintf("%d", res.HistoryId)
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	return histories, cursor, nil
}

func (c *Client) Profile(ctx context.Context) (*gmailapi.Profile, error) {
	profile, err := c.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

func (c *Client) Send(ctx context.Context, raw, threadID string) (string, error) {
	msg := &gmailapi.Message{
		Raw:      raw,
		ThreadId: threadID,
	}

	sent, err := c.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return sent.Id, nil
}

func (c *Client) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	_, err := c.svc.Users.Messages.Modify("me", id, &gmailapi.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to modify labels on %s: %w", id, err)
	}

	return nil
}

func (c *Client) Watch(ctx context.Context, topicName string) (*gmailapi.WatchResponse, error) {
	res, err := c.svc.Users.Watch("me", &gmailapi.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to register watch: %w", err)
	}

	return res, nil
}

func parseHistoryID(s string) (uint64, error) {
	var id uint64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid history id %q: %w", s, err)
	}
	return id, nil
}
