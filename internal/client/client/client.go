// Package client talks to the credstack auth gateway over gRPC and keeps the
// CLI's local session database.
package client

import (
	"context"
	"time"
)

// Session is the result of register, login or refresh.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Identity is what the server reports for the current token.
type Identity struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Client interface {
	Close() error
	Register(ctx context.Context, email, password, name string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	RefreshToken(ctx context.Context, token string) (*Session, error)
	IssueAPIToken(ctx context.Context, token string) (string, error)
	WhoAmI(ctx context.Context, token string) (*Identity, error)
}
