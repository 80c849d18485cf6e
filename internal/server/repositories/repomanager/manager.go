package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credstack/internal/dbx"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Reminders(db dbx.DBTX) reminders.Repository
}
