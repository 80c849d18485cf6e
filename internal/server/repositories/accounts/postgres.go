// Package accounts reads the credit accounts the reminder engine works from.
package accounts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/credstack/internal/dbx"
	"github.com/dmitrijs2005/credstack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	query :=
		`SELECT id, user_id, name, statement_day, balance, credit_limit
		 FROM accounts
		 WHERE user_id = $1
		 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.StatementDay, &a.Balance, &a.CreditLimit); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
