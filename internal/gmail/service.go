package gmail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/finchmail/finch/internal/crypto"
	"github.com/finchmail/finch/internal/db"
)

// ErrNotConnected is returned when the user has no Google credential on file.
var ErrNotConnected = errors.New("google account not connected")

// Service owns all Gmail-backed operations: syncing the local cache, sending,
// and label updates. Mailbox clients are built per call from the user's
// stored credential, so a token revocation takes effect on the next request.
type Service struct {
	pool        *pgxpool.Pool
	encryptor   *crypto.Encryptor
	oauthConfig *oauth2.Config

	// newMailbox builds the per-user Gmail client. Tests swap this for a
	// fake.
	newMailbox func(ctx context.Context, userID string) (Mailbox, error)

	mu      sync.Mutex
	running map[string]*syncRun
}

// NewService creates a Gmail service using the given OAuth client.
func NewService(pool *pgxpool.Pool, encryptor *crypto.Encryptor, clientID, clientSecret string) *Service {
	s := &Service{
		pool:      pool,
		encryptor: encryptor,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				gmailapi.GmailModifyScope,
				gmailapi.GmailSendScope,
			},
		},
		running: make(map[string]*syncRun),
	}
	s.newMailbox = s.connect

	return s
}

// connect loads the user's credential and builds an authenticated client.
func (s *Service) connect(ctx context.Context, userID string) (Mailbox, error) {
	cred, err := db.GetCredential(ctx, s.pool, userID)
	if errors.Is(err, db.ErrCredentialNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.encryptor.Decrypt(cred.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: refreshToken,
	}
	if cred.TokenExpiry != nil {
		token.Expiry = *cred.TokenExpiry
	}

	ts := newPersistingTokenSource(
		s.oauthConfig.TokenSource(ctx, token),
		s.pool,
		s.encryptor,
		cred,
	)

	return NewClient(ctx, ts)
}

// IsConnected reports whether the user has a Google credential on file.
func (s *Service) IsConnected(ctx context.Context, userID string) (bool, error) {
	_, err := db.GetCredential(ctx, s.pool, userID)
	if errors.Is(err, db.ErrCredentialNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// MarkRead updates the UNREAD label on the remote message.
func (s *Service) MarkRead(ctx context.Context, userID, id string, read bool) error {
	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return err
	}

	if read {
		return mbox.ModifyLabels(ctx, id, nil, []string{"UNREAD"})
	}

	return mbox.ModifyLabels(ctx, id, []string{"UNREAD"}, nil)
}

// Watch registers the user's inbox with a Pub/Sub topic so that Gmail pushes
// change notifications instead of the server polling for them.
func (s *Service) Watch(ctx context.Context, userID, topicName string) (*gmailapi.WatchResponse, error) {
	mbox, err := s.newMailbox(ctx, userID)
	if err != nil {
		return nil, err
	}

	return mbox.Watch(ctx, topicName)
}
