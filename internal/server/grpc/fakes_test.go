package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/auth"
	servermodels "github.com/dmitrijs2005/losskeeper/internal/server/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/services"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

// memUsers is an in-memory UserService issuing real JWTs.
type memUsers struct {
	mu        sync.Mutex
	passwords map[string]string
	ids       map[string]string
	refresh   map[string]string
	accessTTL time.Duration
	refreshes int
}

func newMemUsers() *memUsers {
	return &memUsers{
		passwords: map[string]string{},
		ids:       map[string]string{},
		refresh:   map[string]string{},
		accessTTL: time.Hour,
	}
}

func (m *memUsers) Register(_ context.Context, username, password string) (*servermodels.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", common.ErrValidation)
	}
	if _, ok := m.passwords[username]; ok {
		return nil, common.ErrAlreadyExists
	}
	id := uuid.NewString()
	m.passwords[username] = password
	m.ids[username] = id
	return &servermodels.User{ID: id, UserName: username}, nil
}

func (m *memUsers) Login(_ context.Context, username, password string) (string, *services.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.passwords[username]; !ok || p != password {
		return "", nil, common.ErrUnauthorized
	}
	id := m.ids[username]
	pair, err := m.issue(id)
	return id, pair, err
}

func (m *memUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.refresh[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	delete(m.refresh, token)
	m.refreshes++
	return m.issue(id)
}

func (m *memUsers) issue(userID string) (*services.TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(testSecret), m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	m.refresh[refresh] = userID
	return &services.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// memEntries is an in-memory EntryService with owner scoping and
// client_ref dedupe.
type memEntries struct {
	mu   sync.Mutex
	rows map[string]models.Entry
	err  error
}

func newMemEntries() *memEntries {
	return &memEntries{rows: map[string]models.Entry{}}
}

func (m *memEntries) List(_ context.Context, ownerID string) ([]models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Entry{}
	for _, e := range m.rows {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntries) Get(_ context.Context, ownerID, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (m *memEntries) Create(_ context.Context, ownerID string, e models.Entry) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if err := models.Validate(e); err != nil {
		return nil, err
	}
	if e.ClientRef != "" {
		for _, r := range m.rows {
			if r.OwnerID == ownerID && r.ClientRef == e.ClientRef {
				return &r, nil
			}
		}
	}
	e.ID = uuid.NewString()
	e.OwnerID = ownerID
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	m.rows[e.ID] = e
	return &e, nil
}

func (m *memEntries) Update(_ context.Context, ownerID string, e models.Entry) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[e.ID]
	if !ok || old.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	e.OwnerID = ownerID
	e.ClientRef = old.ClientRef
	e.RecordedAt = old.RecordedAt
	m.rows[e.ID] = e
	return &e, nil
}

func (m *memEntries) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
