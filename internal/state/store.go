package state

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/finchmail/finch/internal/models"
)

// View names the screen the mail client is showing.
type View string

const (
	ViewInbox       View = "inbox"
	ViewSent        View = "sent"
	ViewDrafts      View = "drafts"
	ViewCompose     View = "compose"
	ViewEmailDetail View = "email-detail"
)

// ValidView reports whether v is a view the client can navigate to.
func ValidView(v View) bool {
	switch v {
	case ViewInbox, ViewSent, ViewDrafts, ViewCompose, ViewEmailDetail:
		return true
	}
	return false
}

// ComposeData is a draft being edited in the compose view.
type ComposeData struct {
	To        string `json:"to"`
	Cc        string `json:"cc,omitempty"`
	Bcc       string `json:"bcc,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// Confirmation is a pending request for the user to approve an assistant
// action. The decision channel carries exactly one value.
type Confirmation struct {
	ID          string
	Action      string
	Description string

	decision chan bool
}

// ErrNoConfirmation is returned when resolving a confirmation that does not
// exist or was already resolved.
var ErrNoConfirmation = errors.New("no pending confirmation with that id")

// Store holds the UI state the assistant reads and mutates for one user
// session. All methods are safe for concurrent use; the assistant loop and
// the confirm endpoint touch the same store from different goroutines.
type Store struct {
	mu sync.Mutex

	currentView     View
	emails          []*models.Message
	selectedEmailID string
	selectedEmail   *models.Message
	threadMessages  []*models.Message
	filters         models.EmailFilter
	composeData     ComposeData
	confirmation    *Confirmation
}

// NewStore creates a store showing an empty inbox.
func NewStore() *Store {
	return &Store{currentView: ViewInbox}
}

// Navigate switches views and clears the selection and filters, matching
// what clicking a sidebar entry does.
func (s *Store) Navigate(view View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentView = view
	s.selectedEmailID = ""
	s.selectedEmail = nil
	s.emails = nil
	s.filters = models.EmailFilter{}
}

// CurrentView returns the view the client is showing.
func (s *Store) CurrentView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentView
}

// SetEmails replaces the visible email list.
func (s *Store) SetEmails(emails []*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = emails
}

// Emails returns the visible email list.
func (s *Store) Emails() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emails
}

// OpenEmail switches to the detail view for the given message id. The detail
// payload arrives later via SetSelectedEmail.
func (s *Store) OpenEmail(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentView = ViewEmailDetail
	s.selectedEmailID = id
	s.threadMessages = nil
}

// SetSelectedEmail stores the detail payload for the open email.
func (s *Store) SetSelectedEmail(email *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedEmail = email
}

// SelectedEmail returns the open email, or nil.
func (s *Store) SelectedEmail() *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedEmail
}

// SetThreadMessages stores the open email's thread.
func (s *Store) SetThreadMessages(messages []*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadMessages = messages
}

// ThreadMessages returns the open email's thread.
func (s *Store) ThreadMessages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadMessages
}

// SetFilters replaces the active filters and returns the client to the inbox
// so the filtered list is visible.
func (s *Store) SetFilters(filters models.EmailFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = filters
	s.currentView = ViewInbox
}

// Filters returns the active filters.
func (s *Store) Filters() models.EmailFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// OpenCompose switches to the compose view with the draft pre-filled.
func (s *Store) OpenCompose(data ComposeData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentView = ViewCompose
	s.composeData = data
}

// ComposeData returns the current draft.
func (s *Store) ComposeData() ComposeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeData
}

// RequestConfirmation registers a pending confirmation and returns it. A
// previous unresolved confirmation is cancelled first, so a stale dialog can
// never approve a newer action. The caller blocks on Wait.
func (s *Store) RequestConfirmation(action, description string) *Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.confirmation != nil {
		s.confirmation.decision <- false
	}

	c := &Confirmation{
		ID:          uuid.NewString(),
		Action:      action,
		Description: description,
		decision:    make(chan bool, 1),
	}
	s.confirmation = c

	return c
}

// PendingConfirmation returns the unresolved confirmation, or nil.
func (s *Store) PendingConfirmation() *Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmation
}

// Resolve delivers the user's decision for the pending confirmation.
func (s *Store) Resolve(id string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.confirmation == nil || s.confirmation.ID != id {
		return ErrNoConfirmation
	}

	s.confirmation.decision <- approved
	s.confirmation = nil

	return nil
}

// Wait blocks until the confirmation is resolved or the done channel closes.
// An abandoned wait counts as a denial.
func (c *Confirmation) Wait(done <-chan struct{}) bool {
	select {
	case approved := <-c.decision:
		return approved
	case <-done:
		return false
	}
}
