package models

import (
	"github.com/dmitrijs2005/credstack/internal/server/utilization"
	"github.com/shopspring/decimal"
)

// Account is a credit account owned by a user. StatementDay is nil when the
// owner has not told us when the statement closes.
type Account struct {
	ID           string
	OwnerID      string
	Name         string
	StatementDay *int
	Balance      decimal.Decimal
	CreditLimit  decimal.Decimal
}

// Utilization returns the balance as a percentage of the credit limit, and
// false when the account has no positive limit.
func (a Account) Utilization() (decimal.Decimal, bool) {
	return utilization.Percent(a.Balance, a.CreditLimit)
}
