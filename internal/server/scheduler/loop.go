// Package scheduler runs the periodic reminder pass: deliver what is due,
// archive receipts, then regenerate automation reminders.
package scheduler

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/archive"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/dmitrijs2005/credstack/internal/server/notify"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/reminders"
	"github.com/robfig/cron/v3"
)

// ReminderSource is the part of services.ReminderService the loop drives.
type ReminderSource interface {
	ListDue(ctx context.Context) ([]models.DueReminder, error)
	MarkSent(ctx context.Context, id string) error
	RunAll(ctx context.Context) (int, error)
}

type Archiver interface {
	Archive(ctx context.Context, receipts []archive.Receipt) error
}

// TickResult summarises one pass.
type TickResult struct {
	Delivered int
	Failed    int
	Generated int
}

// Loop is a single-actor poller. Ticks never overlap: a tick still running
// when the next one is due makes cron skip the new one.
type Loop struct {
	source   ReminderSource
	notifier notify.Notifier
	archiver Archiver
	logger   logging.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

// NewLoop builds a loop. archiver may be nil to disable receipt archiving.
func NewLoop(source ReminderSource, notifier notify.Notifier, archiver Archiver, logger logging.Logger, interval, timeout time.Duration) *Loop {
	return &Loop{
		source:   source,
		notifier: notifier,
		archiver: archiver,
		logger:   logger.With("module", "scheduler"),
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Run ticks once immediately, then every interval, until ctx is cancelled.
// It waits for a running tick to finish before returning.
func (l *Loop) Run(ctx context.Context) error {
	cl := cronLogger{logger: l.logger}
	job := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		l.Tick(ctx)
	}))

	c := cron.New(cron.WithLogger(cl))
	c.Schedule(cron.Every(l.interval), job)

	l.logger.Info(ctx, "scheduler started", "interval", l.interval.String())
	job.Run()
	c.Start()

	<-ctx.Done()
	// Stop's context is done once in-flight jobs have returned
	<-c.Stop().Done()

	l.logger.Info(context.Background(), "scheduler stopped")
	return nil
}

// Tick performs one delivery and regeneration pass under the tick timeout.
// Failures are logged; they never stop the loop.
func (l *Loop) Tick(parent context.Context) TickResult {
	var res TickResult
	if parent.Err() != nil {
		return res
	}

	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	due, err := l.source.ListDue(ctx)
	if err != nil {
		l.logger.Error(ctx, "list due reminders", "error", err)
	}

	var receipts []archive.Receipt
	for _, r := range due {
		if ctx.Err() != nil {
			break
		}
		if err := l.notifier.Notify(ctx, r.Contact, r.Message); err != nil {
			res.Failed++
			l.logger.Warn(ctx, "reminder delivery failed", "reminder_id", r.ID, "user_id", r.OwnerID, "error", err)
			continue
		}
		if err := l.source.MarkSent(ctx, r.ID); err != nil {
			// delivered but not marked: it will be sent again next tick
			res.Failed++
			l.logger.Error(ctx, "mark reminder sent", "reminder_id", r.ID, "error", err)
			continue
		}
		res.Delivered++
		receipts = append(receipts, archive.Receipt{
			ReminderID:  r.ID,
			OwnerID:     r.OwnerID,
			Channel:     r.Contact.Preference,
			TargetDate:  r.TargetDate.Format(reminders.DateLayout),
			DeliveredAt: l.now().UTC(),
		})
	}

	if l.archiver != nil && len(receipts) > 0 {
		if err := l.archiver.Archive(ctx, receipts); err != nil {
			l.logger.Warn(ctx, "archive delivery receipts", "count", len(receipts), "error", err)
		}
	}

	if ctx.Err() == nil {
		n, err := l.source.RunAll(ctx)
		res.Generated = n
		if err != nil {
			l.logger.Error(ctx, "regenerate reminders", "error", err)
		}
	}

	if res.Delivered > 0 || res.Failed > 0 || res.Generated > 0 {
		l.logger.Info(ctx, "scheduler tick",
			"delivered", res.Delivered, "failed", res.Failed, "generated", res.Generated)
	}
	return res
}
