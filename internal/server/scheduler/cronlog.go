package scheduler

import (
	"context"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own messages (skips, recovered panics) into our
// structured logger.
type cronLogger struct {
	logger logging.Logger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(context.Background(), msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}
