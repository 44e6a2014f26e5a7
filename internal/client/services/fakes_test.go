package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/client/client"
	"github.com/dmitrijs2005/losskeeper/internal/client/storage"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeClient implements client.Client for unit tests of the services.
type fakeClient struct {
	CloseErr    error
	RegisterErr error
	LoginRet    client.Session
	LoginErr    error
	PingErr     error

	CreateErr error
	UpdateErr error
	DeleteErr error

	entries map[string]models.Entry
	seq     int

	LastRegisterUser string
	LastLoginUser    string
	Access, Refresh  string
	creates, updates int
	deletes          int
}

func newFakeClient() *fakeClient {
	return &fakeClient{entries: map[string]models.Entry{}}
}

func (f *fakeClient) Close() error { return f.CloseErr }

func (f *fakeClient) Register(ctx context.Context, username, password string) (string, error) {
	f.LastRegisterUser = username
	if f.RegisterErr != nil {
		return "", f.RegisterErr
	}
	return "u-" + username, nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (client.Session, error) {
	f.LastLoginUser = username
	if f.LoginErr != nil {
		return client.Session{}, f.LoginErr
	}
	f.Access, f.Refresh = f.LoginRet.AccessToken, f.LoginRet.RefreshToken
	return f.LoginRet, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) SetTokens(access, refresh string) { f.Access, f.Refresh = access, refresh }

func (f *fakeClient) ListEntries(ctx context.Context) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeClient) GetEntry(ctx context.Context, id string) (models.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return models.Entry{}, common.ErrNotFound
	}
	return e, nil
}

func (f *fakeClient) CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	f.creates++
	if f.CreateErr != nil {
		return models.Entry{}, f.CreateErr
	}
	f.seq++
	e.ID = fmt.Sprintf("srv-%d", f.seq)
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeClient) UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	f.updates++
	if f.UpdateErr != nil {
		return models.Entry{}, f.UpdateErr
	}
	if _, ok := f.entries[e.ID]; !ok {
		return models.Entry{}, common.ErrNotFound
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeClient) DeleteEntry(ctx context.Context, id string) error {
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.entries[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

// fixedIdentity is a signed-in (or not) owner.
type fixedIdentity string

func (i fixedIdentity) CurrentOwner(ctx context.Context) (string, error) {
	if i == "" {
		return "", common.ErrUnauthorized
	}
	return string(i), nil
}

// Opening the store runs goose, whose state is global: no t.Parallel here.
func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func slot88() models.Entry {
	return models.Entry{
		Category:   models.CategoryJudol,
		Label:      "Slot88",
		Amount:     decimal.NewFromInt(500000),
		OccurredOn: models.NewDate(2024, time.January, 2),
	}
}
