package accounts

import (
	"context"

	"github.com/dmitrijs2005/credstack/internal/server/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error)
}
