package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/dbx"
	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo keeps users in memory, keyed by id.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	updates []models.LockoutState

	getErr    error
	createErr error
	updateErr error
	listErr   error
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = "u-" + u.Email
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateLockoutState(_ context.Context, id string, st models.LockoutState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.updates = append(f.updates, st)
	u.FailedLoginAttempts = st.FailedAttempts
	u.LockedUntil = st.LockedUntil
	if st.LastLogin != nil {
		u.LastLogin = st.LastLogin
	}
	return nil
}

func (f *fakeUsersRepo) SetAPIToken(_ context.Context, id, token string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.APIToken = &token
	u.APITokenCreatedAt = &at
	return nil
}

func (f *fakeUsersRepo) ListIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsersRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.byID[id]
	return &cp
}

type fakeAccountsRepo struct {
	byOwner map[string][]models.Account
	err     error
}

func (f *fakeAccountsRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byOwner[ownerID], nil
}

// fakeRemindersRepo mimics the SQL: substring match on the message for
// lookups and the (owner, category, date, subject) unique index on insert.
type fakeRemindersRepo struct {
	mu    sync.Mutex
	items []*models.Reminder
	seq   int

	findErr   error
	createErr error
	// skipFind makes every lookup miss, to exercise the unique index path.
	skipFind bool
}

func (f *fakeRemindersRepo) FindByOwnerAndMessagePattern(_ context.Context, ownerID, substring string, date time.Time) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.skipFind {
		return nil, common.ErrorNotFound
	}
	for _, r := range f.items {
		if r.OwnerID == ownerID && r.Category == common.ReminderCategoryAutomation &&
			sameDate(r.TargetDate, date) && strings.Contains(r.Message, substring) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRemindersRepo) Create(_ context.Context, r *models.Reminder) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if r.Subject != nil {
		for _, x := range f.items {
			if x.Subject != nil && *x.Subject == *r.Subject && x.OwnerID == r.OwnerID &&
				x.Category == r.Category && sameDate(x.TargetDate, r.TargetDate) {
				return nil, common.ErrAlreadyExists
			}
		}
	}
	f.seq++
	cp := *r
	cp.ID = fmt.Sprintf("r-%d", f.seq)
	r.ID = cp.ID
	f.items = append(f.items, &cp)
	return r, nil
}

func (f *fakeRemindersRepo) ListDueUnsent(_ context.Context, today time.Time) ([]models.DueReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DueReminder
	for _, r := range f.items {
		if !r.Sent && !r.TargetDate.After(today) {
			out = append(out, models.DueReminder{Reminder: *r, Contact: models.Contact{OwnerID: r.OwnerID}})
		}
	}
	return out, nil
}

func (f *fakeRemindersRepo) MarkSent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id {
			r.Sent = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeRemindersRepo) all() []models.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Reminder, 0, len(f.items))
	for _, r := range f.items {
		out = append(out, *r)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeAccountsRepo
	r *fakeRemindersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }
func (m *fakeRepoManager) Reminders(dbx.DBTX) reminders.Repository      { return m.r }
