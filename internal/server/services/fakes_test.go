package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/dbx"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/config"
	servermodels "github.com/dmitrijs2005/losskeeper/internal/server/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/repositories/entries"
	"github.com/dmitrijs2005/losskeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/losskeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*servermodels.User
	getErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *servermodels.User) (*servermodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byName == nil {
		f.byName = map[string]*servermodels.User{}
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byName[u.UserName] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, name string) (*servermodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]servermodels.RefreshToken
	createErr error
	pruneErr  error
	pruned    int
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.tokens == nil {
		f.tokens = map[string]servermodels.RefreshToken{}
	}
	f.tokens[token] = servermodels.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Consume(_ context.Context, token string) (*servermodels.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(f.tokens, token)
	return &t, nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, _ string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	f.pruned++
	return 0, nil
}

func (f *fakeRefreshRepo) has(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[token]
	return ok
}

// fakeEntriesRepo mimics the Postgres repository: owner scoping and
// (owner, client_ref) dedupe.
type fakeEntriesRepo struct {
	mu   sync.Mutex
	rows map[string]models.Entry
	err  error
}

func (f *fakeEntriesRepo) List(_ context.Context, ownerID string) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Entry, 0)
	for _, e := range f.rows {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].OccurredOn.Before(out[i].OccurredOn) })
	return out, nil
}

func (f *fakeEntriesRepo) Get(_ context.Context, ownerID, id string) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (f *fakeEntriesRepo) Create(_ context.Context, e models.Entry) (*models.Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if f.rows == nil {
		f.rows = map[string]models.Entry{}
	}
	if e.ClientRef != "" {
		for _, r := range f.rows {
			if r.OwnerID == e.OwnerID && r.ClientRef == e.ClientRef {
				return &r, false, nil
			}
		}
	}
	e.ID = uuid.NewString()
	e.SyncState = models.SyncStateSynced
	f.rows[e.ID] = e
	return &e, true, nil
}

func (f *fakeEntriesRepo) Update(_ context.Context, e models.Entry) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.rows[e.ID]
	if !ok || old.OwnerID != e.OwnerID {
		return nil, common.ErrNotFound
	}
	e.ClientRef = old.ClientRef
	e.RecordedAt = old.RecordedAt
	f.rows[e.ID] = e
	return &e, nil
}

func (f *fakeEntriesRepo) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e, ok := f.rows[id]
	if !ok || e.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	e *fakeEntriesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}, e: &fakeEntriesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Entries(dbx.DBTX) entries.Repository             { return m.e }
