package reminders

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credstack/internal/server/models"
)

type Repository interface {
	// FindByOwnerAndMessagePattern returns an automation reminder of the owner
	// dated date whose message contains substring, or common.ErrorNotFound.
	FindByOwnerAndMessagePattern(ctx context.Context, ownerID, substring string, date time.Time) (*models.Reminder, error)
	Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	ListDueUnsent(ctx context.Context, today time.Time) ([]models.DueReminder, error)
	MarkSent(ctx context.Context, id string) error
}
