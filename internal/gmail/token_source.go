package gmail

import (
	"context"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"

	"github.com/finchmail/finch/internal/crypto"
	"github.com/finchmail/finch/internal/db"
	"github.com/finchmail/finch/internal/models"
)

// persistingTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to the database as soon as they are minted, so that a process
// restart does not lose them.
type persistingTokenSource struct {
	base      oauth2.TokenSource
	pool      *pgxpool.Pool
	encryptor *crypto.Encryptor
	userID    string

	mu   sync.Mutex
	last *models.GoogleCredential
}

func newPersistingTokenSource(base oauth2.TokenSource, pool *pgxpool.Pool, encryptor *crypto.Encryptor, cred *models.GoogleCredential) *persistingTokenSource {
	return &persistingTokenSource{
		base:      base,
		pool:      pool,
		encryptor: encryptor,
		userID:    cred.UserID,
		last:      cred,
	}
}

func (ts *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.base.Token()
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if tok.AccessToken == ts.last.AccessToken {
		return tok, nil
	}

	cred := &models.GoogleCredential{
		UserID:                ts.userID,
		AccessToken:           tok.AccessToken,
		EncryptedRefreshToken: ts.last.EncryptedRefreshToken,
	}

	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		cred.TokenExpiry = &expiry
	}

	// Google only rotates refresh tokens occasionally; re-encrypt when it
	// does.
	if tok.RefreshToken != "" {
		encrypted, err := ts.encryptor.Encrypt(tok.RefreshToken)
		if err != nil {
			log.Printf("Warning: failed to encrypt rotated refresh token for user %s: %v", ts.userID, err)
		} else {
			cred.EncryptedRefreshToken = encrypted
		}
	}

	if err := db.SaveCredential(context.Background(), ts.pool, cred); err != nil {
		log.Printf("Warning: failed to persist refreshed token for user %s: %v", ts.userID, err)
	}

	ts.last = cred

	return tok, nil
}
