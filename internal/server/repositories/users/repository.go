package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credstack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateLockoutState(ctx context.Context, id string, state models.LockoutState) error
	SetAPIToken(ctx context.Context, id, token string, createdAt time.Time) error
	ListIDs(ctx context.Context) ([]string, error)
}
