package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan10 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newReminderService(t *testing.T, rm *fakeRepoManager, now time.Time) *ReminderService {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	s := NewReminderService(nil, rm, cfg)
	s.now = func() time.Time { return now }
	return s
}

func TestGenerateStatementAlert_CreatesOnce(t *testing.T) {
	rem := &fakeRemindersRepo{}
	s := newReminderService(t, &fakeRepoManager{r: rem}, jan10)

	ok, err := s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	items := rem.all()
	require.Len(t, items, 1)
	assert.Equal(t, "2024-01-12", items[0].TargetDate.Format("2006-01-02"))
	assert.Equal(t, common.ReminderCategoryAutomation, items[0].Category)
	assert.Equal(t, "Alert: Visa statement closes in 3 days. Pay down balance to keep utilization under 10%!", items[0].Message)
	require.NotNil(t, items[0].Subject)
	assert.Equal(t, "Visa", *items[0].Subject)

	ok, err = s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, rem.all(), 1)
}

func TestGenerateStatementAlert_DayAlreadyPassed(t *testing.T) {
	rem := &fakeRemindersRepo{}
	s := newReminderService(t, &fakeRepoManager{r: rem}, jan10)

	_, err := s.GenerateStatementAlert(context.Background(), "u1", "Visa", 5, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-02", rem.all()[0].TargetDate.Format("2006-01-02"))
}

func TestGenerateStatementAlert_UniqueViolationIsNoop(t *testing.T) {
	rem := &fakeRemindersRepo{}
	s := newReminderService(t, &fakeRepoManager{r: rem}, jan10)

	_, err := s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	require.NoError(t, err)

	rem.skipFind = true
	ok, err := s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, rem.all(), 1)
}

func TestGenerateStatementAlert_Errors(t *testing.T) {
	s := newReminderService(t, &fakeRepoManager{r: &fakeRemindersRepo{}}, jan10)

	_, err := s.GenerateStatementAlert(context.Background(), "u1", "Visa", 0, 3)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = s.GenerateStatementAlert(context.Background(), "u1", "Visa", 32, 3)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = s.GenerateStatementAlert(context.Background(), "u1", "Visa", 10, -1)
	assert.ErrorIs(t, err, common.ErrValidation)

	s = newReminderService(t, &fakeRepoManager{r: &fakeRemindersRepo{findErr: errBoom{}}}, jan10)
	_, err = s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	assert.ErrorIs(t, err, common.ErrorInternal)

	s = newReminderService(t, &fakeRepoManager{r: &fakeRemindersRepo{createErr: errBoom{}}}, jan10)
	_, err = s.GenerateStatementAlert(context.Background(), "u1", "Visa", 15, 3)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestCreateReminder(t *testing.T) {
	rem := &fakeRemindersRepo{}
	s := newReminderService(t, &fakeRepoManager{r: rem}, jan10)

	r, err := s.CreateReminder(context.Background(), "u1", "custom", "Pay rent", 2, intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-30", r.TargetDate.Format("2006-01-02"))
	assert.Nil(t, r.Subject)

	r, err = s.CreateReminder(context.Background(), "u1", "custom", "Call bank", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", r.TargetDate.Format("2006-01-02"))

	// no dedup for one-off reminders
	_, err = s.CreateReminder(context.Background(), "u1", "custom", "Call bank", 5, nil)
	require.NoError(t, err)
	assert.Len(t, rem.all(), 3)

	_, err = s.CreateReminder(context.Background(), "u1", "custom", "x", 0, intPtr(0))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRunAllForOwner_OnlyAccountsWithStatementDay(t *testing.T) {
	rem := &fakeRemindersRepo{}
	acc := &fakeAccountsRepo{byOwner: map[string][]models.Account{
		"u1": {
			{ID: "a1", OwnerID: "u1", Name: "Visa", StatementDay: intPtr(15)},
			{ID: "a2", OwnerID: "u1", Name: "Amex", StatementDay: intPtr(28)},
			{ID: "a3", OwnerID: "u1", Name: "Store card"},
		},
	}}
	s := newReminderService(t, &fakeRepoManager{a: acc, r: rem}, jan10)

	n, err := s.RunAllForOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RunAllForOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, rem.all(), 2)
}

func TestRunAllForOwner_UtilizationWarning(t *testing.T) {
	rem := &fakeRemindersRepo{}
	acc := &fakeAccountsRepo{byOwner: map[string][]models.Account{
		"u1": {
			{ID: "a1", Name: "Visa", StatementDay: intPtr(15), Balance: decimal.NewFromInt(450), CreditLimit: decimal.NewFromInt(1000)},
			{ID: "a2", Name: "Amex", StatementDay: intPtr(15), Balance: decimal.NewFromInt(100), CreditLimit: decimal.NewFromInt(1000)},
		},
	}}
	s := newReminderService(t, &fakeRepoManager{a: acc, r: rem}, jan10)

	_, err := s.RunAllForOwner(context.Background(), "u1")
	require.NoError(t, err)

	items := rem.all()
	require.Len(t, items, 2)
	assert.Equal(t,
		"Alert: Visa statement closes in 3 days. Pay down balance to keep utilization under 10%! Current utilization is 45%, above the 30% warning threshold.",
		items[0].Message)
	assert.Equal(t, "Alert: Amex statement closes in 3 days. Pay down balance to keep utilization under 10%!", items[1].Message)
}

func TestRunAllForOwner_ContinuesPastFailures(t *testing.T) {
	rem := &fakeRemindersRepo{}
	acc := &fakeAccountsRepo{byOwner: map[string][]models.Account{
		"u1": {
			{ID: "bad", Name: "Broken", StatementDay: intPtr(40)},
			{ID: "a2", Name: "Visa", StatementDay: intPtr(15)},
		},
	}}
	s := newReminderService(t, &fakeRepoManager{a: acc, r: rem}, jan10)

	n, err := s.RunAllForOwner(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account bad")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 1, n)
}

func TestRunAllForOwner_AccountsError(t *testing.T) {
	s := newReminderService(t, &fakeRepoManager{a: &fakeAccountsRepo{err: errBoom{}}, r: &fakeRemindersRepo{}}, jan10)
	_, err := s.RunAllForOwner(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRunAll(t *testing.T) {
	rem := &fakeRemindersRepo{}
	users := newFakeUsersRepo(&models.User{ID: "u1"}, &models.User{ID: "u2"})
	acc := &fakeAccountsRepo{byOwner: map[string][]models.Account{
		"u1": {{ID: "a1", Name: "Visa", StatementDay: intPtr(15)}},
		"u2": {{ID: "a2", Name: "Visa", StatementDay: intPtr(15)}},
	}}
	s := newReminderService(t, &fakeRepoManager{u: users, a: acc, r: rem}, jan10)

	n, err := s.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	users.listErr = errBoom{}
	_, err = s.RunAll(context.Background())
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestListDueAndMarkSent(t *testing.T) {
	rem := &fakeRemindersRepo{}
	s := newReminderService(t, &fakeRepoManager{r: rem}, jan10)

	_, err := s.CreateReminder(context.Background(), "u1", "custom", "today", 0, nil)
	require.NoError(t, err)
	_, err = s.CreateReminder(context.Background(), "u1", "custom", "later", 3, nil)
	require.NoError(t, err)

	due, err := s.ListDue(context.Background())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "today", due[0].Message)

	require.NoError(t, s.MarkSent(context.Background(), due[0].ID))
	due, err = s.ListDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, s.MarkSent(context.Background(), "nope"), common.ErrorInternal)
}
