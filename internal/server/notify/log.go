package notify

import (
	"context"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/models"
)

// LogNotifier writes each message to the server log. It is the default
// driver and never fails.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, to models.Contact, message string) error {
	n.logger.Info(ctx, "reminder notification",
		"user_id", to.OwnerID,
		"email", to.Email,
		"channel", to.Preference,
		"message", message,
	)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
