package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// EntryService is the write path: every mutation is either applied on the
// server directly (online, nothing queued for the entry) or captured
// locally and queued for the sync engine. Reads always come from the
// local cache.
type EntryService interface {
	Add(ctx context.Context, e models.Entry) (models.Entry, error)
	Update(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Entry, error)
	Get(ctx context.Context, id string) (models.Entry, error)
	Summary(ctx context.Context, today models.Date) (models.Summary, error)
}

// EntryStore is the local store as seen by the write path.
type EntryStore interface {
	Get(ctx context.Context, id string) (models.Entry, error)
	Put(ctx context.Context, e models.Entry) error
	Delete(ctx context.Context, id string) error
	SaveOffline(ctx context.Context, e models.Entry) (string, error)
	UpdateOffline(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error)
	DeleteOffline(ctx context.Context, id string) error
	ListOffline(ctx context.Context, ownerID string) ([]models.Entry, error)
	QueuedFor(ctx context.Context, id string) (int, error)
}

// EntryRemote is the server side of direct writes.
type EntryRemote interface {
	CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Identity resolves the signed-in owner.
type Identity interface {
	CurrentOwner(ctx context.Context) (string, error)
}

// Connectivity is read before each write and told when the server turns
// out to be unreachable.
type Connectivity interface {
	IsOnline() bool
	Set(online bool)
}

type entryService struct {
	remote   EntryRemote
	store    EntryStore
	identity Identity
	conn     Connectivity
	log      logging.Logger
	now      func() time.Time
}

func NewEntryService(remote EntryRemote, store EntryStore, identity Identity, conn Connectivity, log logging.Logger) EntryService {
	return &entryService{
		remote:   remote,
		store:    store,
		identity: identity,
		conn:     conn,
		log:      log.With("module", "entries"),
		now:      time.Now,
	}
}

// direct reports whether a write to id may bypass the queue.
func (s *entryService) direct(ctx context.Context, id string) (bool, error) {
	if !s.conn.IsOnline() || models.IsTempID(id) {
		return false, nil
	}
	n, err := s.store.QueuedFor(ctx, id)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// fallback reports whether err means the write should be queued instead.
func (s *entryService) fallback(ctx context.Context, op string, err error) bool {
	if !errors.Is(err, common.ErrRemoteUnavailable) {
		return false
	}
	s.log.Warn(ctx, "server unreachable, queuing", "op", op, "error", err)
	s.conn.Set(false)
	return true
}

// Add records a new entry. Online it is created on the server right away;
// offline, or when the server cannot be reached, it is stored under a temp
// id and queued.
func (s *entryService) Add(ctx context.Context, e models.Entry) (models.Entry, error) {
	owner, err := s.identity.CurrentOwner(ctx)
	if err != nil {
		return models.Entry{}, err
	}

	e = e.Clone()
	e.ID = ""
	e.OwnerID = owner
	if e.RecordedAt.IsZero() {
		e.RecordedAt = s.now().UTC()
	}
	if err := models.Validate(e); err != nil {
		return models.Entry{}, err
	}
	// minted up front so a timed-out direct create and its queued retry
	// share one idempotency key
	e.ClientRef = models.NewTempID(s.now())

	if s.conn.IsOnline() {
		created, err := s.remote.CreateEntry(ctx, e)
		switch {
		case err == nil:
			created.SyncState = models.SyncStateSynced
			if err := s.store.Put(ctx, created); err != nil {
				return models.Entry{}, err
			}
			return created, nil
		case s.fallback(ctx, "create", err):
		default:
			return models.Entry{}, err
		}
	}

	id, err := s.store.SaveOffline(ctx, e)
	if err != nil {
		return models.Entry{}, err
	}
	return s.store.Get(ctx, id)
}

// Update applies patch to an owned entry.
func (s *entryService) Update(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error) {
	if patch.IsEmpty() {
		return models.Entry{}, fmt.Errorf("%w: nothing to change", common.ErrValidation)
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return models.Entry{}, err
	}

	ok, err := s.direct(ctx, id)
	if err != nil {
		return models.Entry{}, err
	}
	if ok {
		next := patch.Apply(cur)
		if err := models.Validate(next); err != nil {
			return models.Entry{}, err
		}
		updated, err := s.remote.UpdateEntry(ctx, next)
		switch {
		case err == nil:
			updated.SyncState = models.SyncStateSynced
			if err := s.store.Put(ctx, updated); err != nil {
				return models.Entry{}, err
			}
			return updated, nil
		case errors.Is(err, common.ErrNotFound):
			// gone on the server; drop the stale copy
			if derr := s.store.Delete(ctx, id); derr != nil {
				return models.Entry{}, derr
			}
			return models.Entry{}, err
		case s.fallback(ctx, "update", err):
		default:
			return models.Entry{}, err
		}
	}

	return s.store.UpdateOffline(ctx, id, patch)
}

// Delete removes an owned entry. Deleting what the server no longer has
// succeeds.
func (s *entryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	ok, err := s.direct(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		err := s.remote.DeleteEntry(ctx, id)
		switch {
		case err == nil, errors.Is(err, common.ErrNotFound):
			return s.store.Delete(ctx, id)
		case s.fallback(ctx, "delete", err):
		default:
			return err
		}
	}

	return s.store.DeleteOffline(ctx, id)
}

// List returns the owner's cached entries, newest first, pending included.
func (s *entryService) List(ctx context.Context) ([]models.Entry, error) {
	owner, err := s.identity.CurrentOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListOffline(ctx, owner)
}

// Get returns one of the owner's cached entries.
func (s *entryService) Get(ctx context.Context, id string) (models.Entry, error) {
	owner, err := s.identity.CurrentOwner(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Entry{}, err
	}
	if e.OwnerID != owner {
		return models.Entry{}, common.ErrNotFound
	}
	return e, nil
}

// Summary totals the owner's cached entries relative to today.
func (s *entryService) Summary(ctx context.Context, today models.Date) (models.Summary, error) {
	list, err := s.List(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(list, today), nil
}
