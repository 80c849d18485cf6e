// Package reminders stores dated reminders and serves the scheduler's due list.
package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/dbx"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/google/uuid"
)

// DateLayout is how calendar dates are passed to the DATE column.
const DateLayout = "2006-01-02"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByOwnerAndMessagePattern(ctx context.Context, ownerID, substring string, date time.Time) (*models.Reminder, error) {
	query :=
		`SELECT id, user_id, reminder_type, reminder_date, message, subject, is_sent, created_at
		 FROM reminders
		 WHERE user_id = $1 AND reminder_type = $2 AND reminder_date = $3
		   AND message LIKE $4 ESCAPE '\'
		 LIMIT 1`

	pattern := "%" + EscapeLike(substring) + "%"

	rem := &models.Reminder{}
	err := r.db.QueryRowContext(ctx, query,
		ownerID, common.ReminderCategoryAutomation, date.Format(DateLayout), pattern,
	).Scan(&rem.ID, &rem.OwnerID, &rem.Category, &rem.TargetDate, &rem.Message, &rem.Subject, &rem.Sent, &rem.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rem, nil
}

// Create inserts an unsent reminder. A clash on the dedup index yields
// common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO reminders (id, user_id, reminder_type, reminder_date, message, subject, is_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		rem.ID, rem.OwnerID, rem.Category, rem.TargetDate.Format(DateLayout), rem.Message, rem.Subject,
	).Scan(&rem.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rem.Sent = false
	return rem, nil
}

// ListDueUnsent returns unsent reminders dated on or before today, with the
// owner's contact details, oldest first.
func (r *PostgresRepository) ListDueUnsent(ctx context.Context, today time.Time) ([]models.DueReminder, error) {
	query :=
		`SELECT r.id, r.user_id, r.reminder_type, r.reminder_date, r.message, r.subject, r.is_sent, r.created_at,
		        u.email, u.phone, u.notification_preference
		 FROM reminders r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.is_sent = FALSE AND r.reminder_date <= $1
		 ORDER BY r.reminder_date, r.created_at`

	rows, err := r.db.QueryContext(ctx, query, today.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.DueReminder
	for rows.Next() {
		var d models.DueReminder
		if err := rows.Scan(
			&d.ID, &d.OwnerID, &d.Category, &d.TargetDate, &d.Message, &d.Subject, &d.Sent, &d.CreatedAt,
			&d.Contact.Email, &d.Contact.Phone, &d.Contact.Preference,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		d.Contact.OwnerID = d.OwnerID
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET is_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
