package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/dmitrijs2005/credstack/internal/server/recurrence"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credstack/internal/server/utilization"
	"github.com/shopspring/decimal"
)

const statementAlertFormat = "Alert: %s statement closes in %d days. Pay down balance to keep utilization under %s%%!"

// ReminderService turns recurring account dates into dated reminders and
// hands due reminders to the scheduler. Statement alerts are idempotent per
// (owner, account name, alert date).
type ReminderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	automation  config.AutomationConfig
	now         func() time.Time
}

func NewReminderService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ReminderService {
	return &ReminderService{
		db:          db,
		repomanager: m,
		automation:  cfg.Automation,
		now:         time.Now,
	}
}

// GenerateStatementAlert creates the alert for the next closing of an
// account's statement, leadTimeDays before it. It reports false when an
// equivalent alert already exists.
func (s *ReminderService) GenerateStatementAlert(ctx context.Context, ownerID, subjectName string, statementDay, leadTimeDays int) (bool, error) {
	return s.generateStatementAlert(ctx, ownerID, subjectName, statementDay, leadTimeDays, nil)
}

func (s *ReminderService) generateStatementAlert(ctx context.Context, ownerID, subjectName string, statementDay, leadTimeDays int, current *decimal.Decimal) (bool, error) {
	if statementDay < 1 || statementDay > 31 {
		return false, common.NewValidationError("Statement day must be between 1 and 31")
	}
	if leadTimeDays < 0 {
		return false, common.NewValidationError("Lead time must not be negative")
	}

	closing := recurrence.DateOf(recurrence.NextOccurrence(statementDay, 0, s.now()))
	alertDate := recurrence.AddDays(closing, -leadTimeDays)

	repo := s.repomanager.Reminders(s.db)

	_, err := repo.FindByOwnerAndMessagePattern(ctx, ownerID, subjectName, alertDate)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, common.ErrorNotFound):
		return false, internalError("lookup reminder", err)
	}

	subject := subjectName
	_, err = repo.Create(ctx, &models.Reminder{
		OwnerID:    ownerID,
		Category:   common.ReminderCategoryAutomation,
		TargetDate: alertDate,
		Message:    s.statementAlertMessage(subjectName, leadTimeDays, current),
		Subject:    &subject,
	})
	if err != nil {
		// a concurrent generator got there first
		if errors.Is(err, common.ErrAlreadyExists) {
			return false, nil
		}
		return false, internalError("create reminder", err)
	}

	return true, nil
}

func (s *ReminderService) statementAlertMessage(subjectName string, leadTimeDays int, current *decimal.Decimal) string {
	msg := fmt.Sprintf(statementAlertFormat, subjectName, leadTimeDays, utilization.Format(s.automation.TargetMaxPercent))
	if current != nil && utilization.Exceeds(*current, s.automation.WarningThresholdPercent) {
		msg += fmt.Sprintf(" Current utilization is %s%%, above the %s%% warning threshold.",
			utilization.Format(*current), utilization.Format(s.automation.WarningThresholdPercent))
	}
	return msg
}

// CreateReminder stores a one-off reminder. With refDay set the date is
// daysBefore days ahead of the next occurrence of that day of month;
// otherwise it is daysBefore days from today. No deduplication is done.
func (s *ReminderService) CreateReminder(ctx context.Context, ownerID, category, message string, daysBefore int, refDay *int) (*models.Reminder, error) {
	now := s.now()

	var date time.Time
	if refDay != nil {
		if *refDay < 1 || *refDay > 31 {
			return nil, common.NewValidationError("Day of month must be between 1 and 31")
		}
		date = recurrence.AddDays(recurrence.DateOf(recurrence.NextOccurrence(*refDay, 0, now)), -daysBefore)
	} else {
		date = recurrence.AddDays(recurrence.DateOf(now), daysBefore)
	}

	rem, err := s.repomanager.Reminders(s.db).Create(ctx, &models.Reminder{
		OwnerID:    ownerID,
		Category:   category,
		TargetDate: date,
		Message:    message,
	})
	if err != nil {
		return nil, internalError("create reminder", err)
	}
	return rem, nil
}

// RunAllForOwner generates statement alerts for every account of the owner
// that has a statement day. A failing account does not stop the others; the
// failures are joined into the returned error.
func (s *ReminderService) RunAllForOwner(ctx context.Context, ownerID string) (int, error) {
	accounts, err := s.repomanager.Accounts(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, internalError("list accounts", err)
	}

	var (
		created int
		errs    []error
	)
	for _, a := range accounts {
		if a.StatementDay == nil {
			continue
		}

		var current *decimal.Decimal
		if pct, ok := a.Utilization(); ok {
			current = &pct
		}

		ok, err := s.generateStatementAlert(ctx, ownerID, a.Name, *a.StatementDay, s.automation.LeadTimeDays, current)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	return created, errors.Join(errs...)
}

// RunAll runs RunAllForOwner for every user.
func (s *ReminderService) RunAll(ctx context.Context) (int, error) {
	owners, err := s.repomanager.Users(s.db).ListIDs(ctx)
	if err != nil {
		return 0, internalError("list users", err)
	}

	var (
		created int
		errs    []error
	)
	for _, id := range owners {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := s.RunAllForOwner(ctx, id)
		created += n
		if err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w", id, err))
		}
	}

	return created, errors.Join(errs...)
}

// ListDue returns unsent reminders dated today or earlier.
func (s *ReminderService) ListDue(ctx context.Context) ([]models.DueReminder, error) {
	due, err := s.repomanager.Reminders(s.db).ListDueUnsent(ctx, recurrence.DateOf(s.now()))
	if err != nil {
		return nil, internalError("list due reminders", err)
	}
	return due, nil
}

func (s *ReminderService) MarkSent(ctx context.Context, id string) error {
	if err := s.repomanager.Reminders(s.db).MarkSent(ctx, id); err != nil {
		return internalError("mark reminder sent", err)
	}
	return nil
}
