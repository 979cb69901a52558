package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/gmail"
	"github.com/finchmail/finch/internal/models"
	"github.com/finchmail/finch/internal/state"
)

// Result is what a tool call produces: structured data fed back to the
// model, plus a one-line summary shown to the user.
type Result struct {
	Data    map[string]any
	Summary string
}

// Executor runs tool calls for one user session, mutating their UI state
// store along the way. Tool failures come back as structured error results,
// never as Go errors, so the model can react to them.
type Executor struct {
	pool   *pgxpool.Pool
	mail   gmail.MailService
	store  *state.Store
	userID string
}

// NewExecutor creates an executor bound to a user and their UI state.
func NewExecutor(pool *pgxpool.Pool, mail gmail.MailService, store *state.Store, userID string) *Executor {
	return &Executor{pool: pool, mail: mail, store: store, userID: userID}
}

// Execute dispatches a tool call by name. Unknown tools produce a structured
// error result; the model frequently recovers by picking a declared one.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) Result {
	switch name {
	case "search_emails":
		return e.searchEmails(ctx, args)
	case "open_email":
		return e.openEmail(ctx, args)
	case "compose_email":
		return e.composeEmail(args)
	case "send_email":
		return e.sendEmail(ctx, args)
	case "apply_filters":
		return e.applyFilters(args)
	case "get_current_context":
		return e.getCurrentContext()
	case "mark_emails":
		return e.markEmails(ctx, args)
	case "navigate":
		return e.navigate(ctx, args)
	default:
		return errorResult("Unknown tool: " + name)
	}
}

func (e *Executor) searchEmails(ctx context.Context, args map[string]any) Result {
	a := decodeSearchArgs(args)
	if a.Label == "" {
		a.Label = "INBOX"
	}

	filter := models.EmailFilter{
		Keyword:  a.Keyword,
		From:     a.From,
		DateFrom: a.DateFrom,
		DateTo:   a.DateTo,
		IsRead:   a.IsRead,
		Label:    a.Label,
	}

	if filter.HasSearch() {
		if _, err := e.mail.SyncSearch(ctx, e.userID, &filter); err != nil {
			log.Printf("Warning: remote search failed, serving cached results: %v", err)
		}
	}

	emails, err := db.ListEmails(ctx, e.pool, e.userID, &filter)
	if err != nil {
		return errorResult("Failed to search emails: " + err.Error())
	}

	e.store.SetFilters(filter)
	e.store.SetEmails(emails)

	return Result{
		Data: map[string]any{
			"count":  len(emails),
			"emails": emailSummaries(emails),
		},
		Summary: fmt.Sprintf("Found %d emails", len(emails)),
	}
}

func (e *Executor) openEmail(ctx context.Context, args map[string]any) Result {
	id := argString(args, "email_id", "emailId")
	if id == "" {
		return errorResult("email_id is required")
	}

	e.store.OpenEmail(id)

	email, err := db.GetMessage(ctx, e.pool, id, e.userID)
	if errors.Is(err, db.ErrMessageNotFound) {
		return errorResult("Email not found")
	}
	if err != nil {
		return errorResult("Failed to open email: " + err.Error())
	}

	if !email.IsRead {
		if err := db.SetMessageRead(ctx, e.pool, id, e.userID, true); err != nil {
			log.Printf("Warning: failed to mark %s read locally: %v", id, err)
		}
		if err := e.mail.MarkRead(ctx, e.userID, id, true); err != nil {
			log.Printf("Warning: failed to mark %s read remotely: %v", id, err)
		}
		email.IsRead = true
	}

	thread := e.loadThread(ctx, email)

	e.store.SetSelectedEmail(email)
	e.store.SetThreadMessages(thread)

	return Result{
		Data: map[string]any{
			"id":       email.ID,
			"from":     email.From,
			"to":       email.To,
			"subject":  email.Subject,
			"date":     email.Date,
			"bodyText": truncate(email.BodyText, 500),
		},
		Summary: "Opened: " + email.Subject,
	}
}

// loadThread returns the cached thread for the email, backfilling from the
// provider when the cache holds at most the email itself.
func (e *Executor) loadThread(ctx context.Context, email *models.Message) []*models.Message {
	if email.ThreadID == "" {
		return []*models.Message{email}
	}

	thread, err := db.GetMessagesForThread(ctx, e.pool, e.userID, email.ThreadID)
	if err != nil {
		log.Printf("Warning: failed to load thread %s: %v", email.ThreadID, err)
		return []*models.Message{email}
	}

	if len(thread) <= 1 {
		if _, err := e.mail.SyncThread(ctx, e.userID, email.ThreadID); err != nil {
			log.Printf("Warning: failed to backfill thread %s: %v", email.ThreadID, err)
			return thread
		}

		refreshed, err := db.GetMessagesForThread(ctx, e.pool, e.userID, email.ThreadID)
		if err == nil {
			thread = refreshed
		}
	}

	return thread
}

func (e *Executor) composeEmail(args map[string]any) Result {
	a := decodeComposeArgs(args)

	e.store.OpenCompose(state.ComposeData{
		To:        a.To,
		Cc:        a.Cc,
		Bcc:       a.Bcc,
		Subject:   a.Subject,
		Body:      a.Body,
		ReplyToID: a.ReplyToID,
	})

	return Result{
		Data: map[string]any{
			"status":  "compose_opened",
			"to":      a.To,
			"subject": a.Subject,
		},
		Summary: "Opened compose to " + a.To,
	}
}

func (e *Executor) sendEmail(ctx context.Context, args map[string]any) Result {
	a := decodeComposeArgs(args)

	// Open compose first so the user sees what is about to go out.
	e.store.OpenCompose(state.ComposeData{
		To:        a.To,
		Cc:        a.Cc,
		Bcc:       a.Bcc,
		Subject:   a.Subject,
		Body:      a.Body,
		ReplyToID: a.ReplyToID,
	})

	confirmation := e.store.RequestConfirmation(
		"Send Email",
		fmt.Sprintf("To: %s\nSubject: %s", a.To, a.Subject),
	)

	if !confirmation.Wait(ctx.Done()) {
		return Result{
			Data:    map[string]any{"status": "cancelled"},
			Summary: "User cancelled the send",
		}
	}

	messageID, err := e.mail.Send(ctx, e.userID, &models.SendRequest{
		To:        a.To,
		Cc:        a.Cc,
		Bcc:       a.Bcc,
		Subject:   a.Subject,
		Body:      a.Body,
		ReplyToID: a.ReplyToID,
	})
	if err != nil {
		return Result{
			Data:    map[string]any{"error": err.Error()},
			Summary: "Failed to send: " + err.Error(),
		}
	}

	// Land the user back where the conversation lives: the replied email,
	// or the sent folder for a fresh message.
	if a.ReplyToID != "" {
		e.store.OpenEmail(a.ReplyToID)
		if email, err := db.GetMessage(ctx, e.pool, a.ReplyToID, e.userID); err == nil {
			e.store.SetSelectedEmail(email)
			e.store.SetThreadMessages(e.loadThread(ctx, email))
		}
	} else {
		e.store.Navigate(state.ViewSent)
	}

	return Result{
		Data: map[string]any{
			"status":    "sent",
			"messageId": messageID,
		},
		Summary: "Email sent to " + a.To,
	}
}

func (e *Executor) applyFilters(args map[string]any) Result {
	a := decodeSearchArgs(args)

	filter := models.EmailFilter{
		Keyword:  a.Keyword,
		From:     a.From,
		DateFrom: a.DateFrom,
		DateTo:   a.DateTo,
		IsRead:   a.IsRead,
	}

	e.store.SetFilters(filter)

	return Result{
		Data:    map[string]any{"filters": filterMap(filter)},
		Summary: "Filters applied",
	}
}

func (e *Executor) getCurrentContext() Result {
	emails := e.store.Emails()

	data := map[string]any{
		"currentView":   string(e.store.CurrentView()),
		"filters":       filterMap(e.store.Filters()),
		"emailCount":    len(emails),
		"visibleEmails": emailSummaries(emails),
	}

	if sel := e.store.SelectedEmail(); sel != nil {
		data["selectedEmail"] = map[string]any{
			"id":       sel.ID,
			"from":     sel.From,
			"to":       sel.To,
			"subject":  sel.Subject,
			"bodyText": truncate(sel.BodyText, 500),
		}
	} else {
		data["selectedEmail"] = nil
	}

	return Result{
		Data:    data,
		Summary: fmt.Sprintf("Current view: %s, %d emails visible", e.store.CurrentView(), len(emails)),
	}
}

func (e *Executor) markEmails(ctx context.Context, args map[string]any) Result {
	ids := argStrings(args, "email_ids", "emailIds")
	action := argString(args, "action")

	switch action {
	case "read", "unread", "star", "unstar":
	default:
		return errorResult("Unsupported action: " + action)
	}

	for _, id := range ids {
		var err error
		switch action {
		case "read", "unread":
			err = db.SetMessageRead(ctx, e.pool, id, e.userID, action == "read")
		case "star", "unstar":
			err = db.SetMessageStarred(ctx, e.pool, id, e.userID, action == "star")
		}
		if err != nil {
			log.Printf("Warning: failed to mark %s as %s: %v", id, action, err)
		}
	}

	if emails, err := db.ListEmails(ctx, e.pool, e.userID, &models.EmailFilter{Label: "INBOX"}); err == nil {
		e.store.SetEmails(emails)
	}

	return Result{
		Data: map[string]any{
			"marked": len(ids),
			"action": action,
		},
		Summary: fmt.Sprintf("Marked %d email(s) as %s", len(ids), action),
	}
}

func (e *Executor) navigate(ctx context.Context, args map[string]any) Result {
	view := state.View(argString(args, "view"))
	if !state.ValidView(view) {
		return errorResult("Unknown view: " + string(view))
	}

	e.store.Navigate(view)

	labels := map[state.View]string{
		state.ViewInbox:  "INBOX",
		state.ViewSent:   "SENT",
		state.ViewDrafts: "DRAFT",
	}
	if label, ok := labels[view]; ok {
		emails, err := db.ListEmails(ctx, e.pool, e.userID, &models.EmailFilter{Label: label})
		if err != nil {
			log.Printf("Warning: failed to refresh %s after navigation: %v", label, err)
		} else {
			e.store.SetEmails(emails)
		}
	}

	return Result{
		Data:    map[string]any{"view": string(view)},
		Summary: "Navigated to " + string(view),
	}
}

func errorResult(message string) Result {
	return Result{
		Data:    map[string]any{"error": message},
		Summary: message,
	}
}

func emailSummaries(emails []*models.Message) []map[string]any {
	summaries := make([]map[string]any, 0, 5)
	for _, e := range emails {
		if len(summaries) == 5 {
			break
		}
		summaries = append(summaries, map[string]any{
			"id":      e.ID,
			"from":    e.From,
			"subject": e.Subject,
			"date":    e.Date,
			"isRead":  e.IsRead,
		})
	}
	return summaries
}

func filterMap(filter models.EmailFilter) map[string]any {
	m := make(map[string]any)
	if filter.Keyword != "" {
		m["keyword"] = filter.Keyword
	}
	if filter.From != "" {
		m["from"] = filter.From
	}
	if filter.DateFrom != "" {
		m["dateFrom"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		m["dateTo"] = filter.DateTo
	}
	if filter.IsRead != nil {
		m["isRead"] = *filter.IsRead
	}
	if filter.Label != "" {
		m["label"] = filter.Label
	}
	return m
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
