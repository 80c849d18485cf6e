// Package services contains application services for the credstack CLI.
// AuthService drives the server's auth gateway and keeps the resulting
// bearer token in the local session database.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/client/client"
	"github.com/dmitrijs2005/credstack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/dbx"
)

// ErrSessionExpired is returned when the saved token is past its expiry.
var ErrSessionExpired = errors.New("session expired, log in again")

// AuthService defines the CLI's authentication operations. Calls that need
// a token read it from the saved session.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name string) (*client.Session, error)
	Login(ctx context.Context, email string, password []byte) (*client.Session, error)
	Refresh(ctx context.Context) (*client.Session, error)
	WhoAmI(ctx context.Context) (*client.Identity, error)
	IssueAPIToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Close() error
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db, now: time.Now}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Register creates the account and saves the returned session.
func (a *authService) Register(ctx context.Context, email string, password []byte, name string) (*client.Session, error) {
	s, err := a.client.Register(ctx, email, string(password), name)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// Login authenticates and saves the returned session.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*client.Session, error) {
	s, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// Refresh exchanges the saved token for a fresh one.
func (a *authService) Refresh(ctx context.Context) (*client.Session, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	s, err := a.client.RefreshToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) WhoAmI(ctx context.Context) (*client.Identity, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.WhoAmI(ctx, token)
}

func (a *authService) IssueAPIToken(ctx context.Context) (string, error) {
	token, err := a.token(ctx)
	if err != nil {
		return "", err
	}
	return a.client.IssueAPIToken(ctx, token)
}

// Logout forgets the saved session. The token itself stays valid on the
// server until it expires.
func (a *authService) Logout(ctx context.Context) error {
	return a.getMetadataRepo(a.db).Clear(ctx)
}

// Close releases the connection and the session database.
func (a *authService) Close() error {
	return errors.Join(a.client.Close(), a.db.Close())
}

// saveSession replaces the stored session in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *client.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		values := map[string]string{
			metadata.KeyUserID:    s.UserID,
			metadata.KeyEmail:     s.Email,
			metadata.KeyToken:     s.Token,
			metadata.KeyExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// token returns the saved bearer token if it has not expired yet.
func (a *authService) token(ctx context.Context) (string, error) {
	repo := a.getMetadataRepo(a.db)

	token, err := repo.Get(ctx, metadata.KeyToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", client.ErrNotLoggedIn
		}
		return "", err
	}

	raw, err := repo.Get(ctx, metadata.KeyExpiresAt)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}
	if exp, perr := time.Parse(time.RFC3339, raw); perr == nil && !a.now().Before(exp) {
		return "", ErrSessionExpired
	}
	return token, nil
}
