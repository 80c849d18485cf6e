// Package metadata stores the CLI session as key/value pairs in the local
// SQLite database.
package metadata

import (
	"context"
)

// Keys written by the session service.
const (
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyToken     = "token"
	KeyExpiresAt = "expires_at"
)

type Repository interface {
	// Get returns common.ErrorNotFound for an absent key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}
