// Package services contains server-side business logic. This file implements
// UserService, the authentication gateway: registration, password login with
// progressive lockout, token refresh and API tokens.
package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/server/auth"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/repomanager"
)

// AuthResult is what a successful register, login or refresh hands back.
type AuthResult struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// UserService authenticates users against stored credentials.
//
// A login attempt is evaluated against the stored lock lazily: nothing runs
// when a lock expires, the next attempt simply finds it in the past.
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	tokens        *auth.TokenService
	hasher        *auth.PasswordHasher
	lockout       auth.LockoutPolicy
	resetOnExpiry bool
	now           func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		tokens:        auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenValidityDuration),
		hasher:        auth.NewPasswordHasher(cfg.PasswordHashCost),
		lockout:       auth.NewLockoutPolicy(cfg.LockoutThreshold, cfg.LockoutDurations),
		resetOnExpiry: cfg.LockoutResetOnExpiry,
		now:           time.Now,
	}
}

// Register validates the credentials, stores a new active user and logs it in.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalError("lookup user", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, internalError("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:                  email,
		Name:                   name,
		NotificationPreference: common.DefaultNotificationPreference,
		PasswordHash:           &digest,
	})
	if err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, internalError("create user", err)
	}

	return s.issue(user.ID, user.Email)
}

// Login checks the password and applies the lockout rules:
//   - a live lock rejects the attempt with *common.AccountLockedError and no write;
//   - a wrong password bumps the counter and may lock the account;
//   - a correct password clears the counter and lock and records the login.
//
// Unknown emails and wrong passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep timing close to the known-user path
			s.hasher.Verify(password, s.dummyHash())
			return nil, common.ErrInvalidCredentials
		}
		return nil, internalError("lookup user", err)
	}

	now := s.now()
	if auth.IsLocked(user.LockedUntil, now) {
		return nil, &common.AccountLockedError{Until: *user.LockedUntil}
	}

	attempts := user.FailedLoginAttempts
	if s.resetOnExpiry && user.LockedUntil != nil {
		attempts = 0
	}

	var digest string
	if user.PasswordHash != nil {
		digest = *user.PasswordHash
	}

	if !s.hasher.Verify(password, digest) {
		attempts++
		state := models.LockoutState{FailedAttempts: attempts}
		if d := s.lockout.DurationFor(attempts); d > 0 {
			until := now.Add(d)
			state.LockedUntil = &until
		}

		if err := repo.UpdateLockoutState(ctx, user.ID, state); err != nil {
			return nil, internalError("record failed login", err)
		}

		if state.LockedUntil != nil {
			return nil, &common.AccountLockedError{Until: *state.LockedUntil}
		}
		return nil, common.ErrInvalidCredentials
	}

	if err := repo.UpdateLockoutState(ctx, user.ID, models.LockoutState{LastLogin: &now}); err != nil {
		return nil, internalError("record login", err)
	}

	return s.issue(user.ID, user.Email)
}

// Refresh issues a fresh token for an already authenticated user.
func (s *UserService) Refresh(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, internalError("lookup user", err)
	}
	return s.issue(user.ID, user.Email)
}

// IssueAPIToken stores a new opaque API token for the user, replacing any
// previous one, and returns it.
func (s *UserService) IssueAPIToken(ctx context.Context, userID string) (string, error) {
	token, err := auth.GenerateAPIToken()
	if err != nil {
		return "", internalError("generate api token", err)
	}

	if err := s.repomanager.Users(s.db).SetAPIToken(ctx, userID, token, s.now()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", internalError("store api token", err)
	}
	return token, nil
}

// Authenticate verifies a bearer token.
func (s *UserService) Authenticate(token string) (auth.Identity, error) {
	return s.tokens.Verify(token)
}

func (s *UserService) issue(userID, email string) (*AuthResult, error) {
	token, id, err := s.tokens.Issue(userID, email)
	if err != nil {
		return nil, internalError("sign token", err)
	}
	return &AuthResult{UserID: userID, Email: email, Token: token, ExpiresAt: id.ExpiresAt}, nil
}

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(hex.EncodeToString(common.GenerateRandByteArray(16)))
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
