package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/dbx"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, name, phone, notification_preference, password_hash,
		failed_login_attempts, locked_until, last_login, api_token, api_token_created_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an active user. A duplicate email yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.NotificationPreference == "" {
		user.NotificationPreference = common.DefaultNotificationPreference
	}

	query :=
		`INSERT INTO users (id, email, name, phone, notification_preference, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.Phone, user.NotificationPreference, user.PasswordHash,
	).Scan(&user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.NotificationPreference, &user.PasswordHash,
		&user.FailedLoginAttempts, &user.LockedUntil, &user.LastLogin, &user.APIToken, &user.APITokenCreatedAt,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// UpdateLockoutState writes the counter and lock expiry. last_login is only
// overwritten when state.LastLogin is set.
func (r *PostgresRepository) UpdateLockoutState(ctx context.Context, id string, state models.LockoutState) error {
	query :=
		`UPDATE users
		 SET failed_login_attempts = $2, locked_until = $3, last_login = COALESCE($4, last_login)
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, state.FailedAttempts, state.LockedUntil, state.LastLogin)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) SetAPIToken(ctx context.Context, id, token string, createdAt time.Time) error {
	query :=
		`UPDATE users SET api_token = $2, api_token_created_at = $3
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, token, createdAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// ListIDs returns every user id, oldest first.
func (r *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
