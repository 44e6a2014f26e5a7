package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/client/config"
	"github.com/dmitrijs2005/losskeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/losskeeper/internal/client/services"
	"github.com/dmitrijs2005/losskeeper/internal/client/syncer"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

type fakeAuth struct {
	regUser string
	regPass []byte
	regErr  error

	loginUser string
	loginMode services.LoginMode
	loginErr  error

	logoutCalled bool
	logoutErr    error

	owner, username string
	pingErr         error
	pings           int
}

func (f *fakeAuth) Register(_ context.Context, user string, pass []byte) error {
	f.regUser, f.regPass = user, append([]byte(nil), pass...)
	return f.regErr
}
func (f *fakeAuth) Login(_ context.Context, user string, pass []byte) (services.LoginMode, error) {
	f.loginUser = user
	if f.loginErr == nil {
		f.owner, f.username = "u1", user
	}
	return f.loginMode, f.loginErr
}
func (f *fakeAuth) Logout(context.Context) (int, error) {
	f.logoutCalled = true
	if f.logoutErr != nil {
		return 0, f.logoutErr
	}
	f.owner, f.username = "", ""
	return 0, nil
}
func (f *fakeAuth) CurrentOwner(context.Context) (string, error) {
	if f.owner == "" {
		return "", common.ErrUnauthorized
	}
	return f.owner, nil
}
func (f *fakeAuth) Username() string                                  { return f.username }
func (f *fakeAuth) PersistTokens(context.Context, string, string) error { return nil }
func (f *fakeAuth) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}
func (f *fakeAuth) Close(context.Context) error { return nil }

type fakeEntries struct {
	entries map[string]models.Entry
	added   []models.Entry
	patches []models.EntryPatch
	err     error
	offline bool
}

func newFakeEntries() *fakeEntries { return &fakeEntries{entries: map[string]models.Entry{}} }

func (f *fakeEntries) Add(_ context.Context, e models.Entry) (models.Entry, error) {
	if f.err != nil {
		return models.Entry{}, f.err
	}
	if err := models.Validate(e); err != nil {
		return models.Entry{}, err
	}
	e.ID = "srv-1"
	e.SyncState = models.SyncStateSynced
	if f.offline {
		e.ID = "temp_1_abcdefg"
		e.SyncState = models.SyncStatePending
	}
	f.added = append(f.added, e)
	f.entries[e.ID] = e
	return e, nil
}
func (f *fakeEntries) Update(_ context.Context, id string, p models.EntryPatch) (models.Entry, error) {
	cur, ok := f.entries[id]
	if !ok {
		return models.Entry{}, common.ErrNotFound
	}
	f.patches = append(f.patches, p)
	next := p.Apply(cur)
	f.entries[id] = next
	return next, nil
}
func (f *fakeEntries) Delete(_ context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}
func (f *fakeEntries) List(context.Context) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, f.err
}
func (f *fakeEntries) Get(_ context.Context, id string) (models.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return models.Entry{}, common.ErrNotFound
	}
	return e, nil
}
func (f *fakeEntries) Summary(ctx context.Context, today models.Date) (models.Summary, error) {
	list, err := f.List(ctx)
	return models.Summarize(list, today), err
}

type fakeEngine struct {
	mu     sync.Mutex
	result models.SyncResult
	calls  int
	last   bool
}

func (f *fakeEngine) SyncNow(context.Context) models.SyncResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = true
	return f.result
}
func (f *fakeEngine) Run(ctx context.Context, _ syncer.Connectivity) { <-ctx.Done() }
func (f *fakeEngine) Last() (models.SyncResult, time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, time.Date(2024, 1, 12, 9, 30, 0, 0, time.UTC), f.last
}

func (f *fakeEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePending int

func (f fakePending) PendingCount(context.Context) (int, error) { return int(f), nil }

type failingPending struct{ err error }

func (f failingPending) PendingCount(context.Context) (int, error) { return 0, f.err }

type testApp struct {
	*App
	auth    *fakeAuth
	entries *fakeEntries
	engine  *fakeEngine
	out     *bytes.Buffer
}

// newTestApp builds an App over fakes; input is what the user types.
func newTestApp(t *testing.T, input string) testApp {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	ta := testApp{
		auth:    &fakeAuth{},
		entries: newFakeEntries(),
		engine:  &fakeEngine{result: models.SyncResult{Success: true, Synced: 2, Pulled: 1}},
		out:     &bytes.Buffer{},
	}
	ta.App = &App{
		config:       cfg,
		log:          logging.Discard(),
		authService:  ta.auth,
		entryService: ta.entries,
		engine:       ta.engine,
		monitor:      connectivity.NewMonitor(connectivity.Online),
		reader:       bufio.NewReader(strings.NewReader(input)),
		out:          ta.out,
		now:          func() time.Time { return time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC) },
	}
	return ta
}

// stubInputs replaces the interactive prompts for username and password.
func stubInputs(t *testing.T, username string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return username, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}
