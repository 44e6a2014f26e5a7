package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// fakeRemote is an in-memory server that deduplicates creates on
// (owner, client_ref) the way the real one does.
type fakeRemote struct {
	mu      sync.Mutex
	owner   string
	entries map[string]models.Entry
	order   []string
	nextIDs []string
	seq     int

	// failCreate returns an error for a create with the given label, or nil.
	failCreate func(e models.Entry) error
	failUpdate func(e models.Entry) error
	listErr    error

	creates, updates, deletes, lists int
}

func newFakeRemote(owner string) *fakeRemote {
	return &fakeRemote{owner: owner, entries: map[string]models.Entry{}}
}

func (f *fakeRemote) ListEntries(ctx context.Context) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Entry, 0, len(f.order))
	for _, id := range f.order {
		if e, ok := f.entries[id]; ok && e.OwnerID == f.owner {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreate != nil {
		if err := f.failCreate(e); err != nil {
			return models.Entry{}, err
		}
	}
	for _, existing := range f.entries {
		if e.ClientRef != "" && existing.ClientRef == e.ClientRef && existing.OwnerID == e.OwnerID {
			return existing.Clone(), nil
		}
	}

	var id string
	if len(f.nextIDs) > 0 {
		id, f.nextIDs = f.nextIDs[0], f.nextIDs[1:]
	} else {
		f.seq++
		id = fmt.Sprintf("srv-%d", f.seq)
	}
	e = e.Clone()
	e.ID = id
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.UnixMilli(1704196800000).UTC()
	}
	e.SyncState = ""
	f.entries[id] = e
	f.order = append(f.order, id)
	return e.Clone(), nil
}

func (f *fakeRemote) UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failUpdate != nil {
		if err := f.failUpdate(e); err != nil {
			return models.Entry{}, err
		}
	}
	cur, ok := f.entries[e.ID]
	if !ok {
		return models.Entry{}, common.ErrNotFound
	}
	e = e.Clone()
	e.ClientRef = cur.ClientRef
	e.RecordedAt = cur.RecordedAt
	e.SyncState = ""
	f.entries[e.ID] = e
	return e.Clone(), nil
}

func (f *fakeRemote) DeleteEntry(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if _, ok := f.entries[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

// seed stores e on the server as if another device had created it.
func (f *fakeRemote) seed(e models.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.OwnerID = f.owner
	e.SyncState = ""
	f.entries[e.ID] = e
	f.order = append(f.order, e.ID)
}

func (f *fakeRemote) get(id string) (models.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	return e, ok
}

func (f *fakeRemote) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeIdentity struct {
	mu    sync.Mutex
	owner string
}

func (i *fakeIdentity) CurrentOwner(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.owner == "" {
		return "", common.ErrUnauthorized
	}
	return i.owner, nil
}

func (i *fakeIdentity) set(owner string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.owner = owner
}

type fakeConn struct {
	online bool
	ch     chan struct{}
}

func (c *fakeConn) IsOnline() bool               { return c.online }
func (c *fakeConn) Reconnected() <-chan struct{} { return c.ch }
