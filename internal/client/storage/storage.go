// Package storage is the local durable store: a SQLite file holding the
// cached entries, the pending-mutation queue, session metadata and the sync
// lease. Every composite write runs in a single transaction so an entry and
// its queue slot are applied together or not at all.
//
// Any driver failure is reported wrapped in common.ErrStorageUnavailable;
// missing rows are reported as common.ErrNotFound.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/client/migrations"
	"github.com/dmitrijs2005/losskeeper/internal/client/repositories/entries"
	"github.com/dmitrijs2005/losskeeper/internal/client/repositories/lease"
	"github.com/dmitrijs2005/losskeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/losskeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/dbx"
	"github.com/dmitrijs2005/losskeeper/internal/filex"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SyncLeaseName is the lease row guarding the queue drain.
const SyncLeaseName = "sync"

type repos struct {
	entries entries.Repository
	queue   queue.Repository
	meta    metadata.Repository
	lease   lease.Repository
}

func bind(db dbx.DBTX) repos {
	return repos{
		entries: entries.NewSQLiteRepository(db),
		queue:   queue.NewSQLiteRepository(db),
		meta:    metadata.NewSQLiteRepository(db),
		lease:   lease.NewSQLiteRepository(db),
	}
}

// Store is the local durable store. It is safe for concurrent use: the
// underlying *sql.DB holds a single connection, so statements and
// transactions from different goroutines are serialized by the pool.
//
// Composite operations (SaveOffline, UpdateOffline, DeleteOffline and the
// Complete* family) run in one transaction each; plain reads and Put are
// single statements.
type Store struct {
	db  *sql.DB
	r   repos
	now func() time.Time
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open opens (or creates) the store at path and migrates it.
//
// Parameters:
//
//	ctx  - bounds the migration run
//	path - SQLite file; missing parent directories are created
//
// Returns:
//
//	A ready Store, or an error wrapping common.ErrStorageUnavailable when the
//	file cannot be opened or migrated.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, unavailable("open", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, unavailable("open", err)
	}
	// One connection: transactions never wait on themselves and writes serialize.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate", err)
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, r: bind(db), now: time.Now}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Metadata exposes the session key/value table.
func (s *Store) Metadata() metadata.Repository {
	return s.r.meta
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
}

func (s *Store) withTx(ctx context.Context, op string, fn func(ctx context.Context, r repos) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
	return unavailable(op, err)
}

// Put inserts or replaces an entry by id.
func (s *Store) Put(ctx context.Context, e models.Entry) error {
	return unavailable("put", s.r.entries.Upsert(ctx, e))
}

// Get returns the cached entry with id, or common.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.Entry, error) {
	e, err := s.r.entries.GetByID(ctx, id)
	return e, unavailable("get", err)
}

// Delete removes the cached entry; deleting a missing id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	return unavailable("delete", s.r.entries.DeleteByID(ctx, id))
}

// ListByOwner returns the owner's cached entries, newest occurred_on first
// and, within a day, most recently recorded first. An owner with no entries
// gets an empty, non-nil slice.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]models.Entry, error) {
	list, err := s.r.entries.ListByOwner(ctx, ownerID)
	return list, unavailable("list by owner", err)
}

// ListUnsynced returns every entry still marked pending, oldest recorded first.
func (s *Store) ListUnsynced(ctx context.Context) ([]models.Entry, error) {
	list, err := s.r.entries.ListByState(ctx, models.SyncStatePending)
	return list, unavailable("list unsynced", err)
}

// Enqueue appends a mutation. A missing queue id is generated and a zero
// EnqueuedAt is replaced with the next queue timestamp.
func (s *Store) Enqueue(ctx context.Context, m models.PendingMutation) error {
	return s.withTx(ctx, "enqueue", func(ctx context.Context, r repos) error {
		return s.enqueue(ctx, r, m)
	})
}

func (s *Store) enqueue(ctx context.Context, r repos, m models.PendingMutation) error {
	if m.QueueID == "" {
		m.QueueID = uuid.NewString()
	}
	if m.EnqueuedAt.IsZero() {
		at, err := s.nextEnqueuedAt(ctx, r)
		if err != nil {
			return err
		}
		m.EnqueuedAt = at
	}
	return r.queue.Insert(ctx, m)
}

// nextEnqueuedAt keeps enqueued_at strictly increasing even if the wall
// clock stalls or steps back.
func (s *Store) nextEnqueuedAt(ctx context.Context, r repos) (time.Time, error) {
	last, err := r.queue.MaxEnqueuedAt(ctx)
	if err != nil {
		return time.Time{}, err
	}
	now := s.now().UnixNano()
	if now <= last {
		now = last + 1
	}
	return time.Unix(0, now).UTC(), nil
}

// Dequeue removes a queue slot; a missing slot is not an error.
func (s *Store) Dequeue(ctx context.Context, queueID string) error {
	return unavailable("dequeue", s.r.queue.Delete(ctx, queueID))
}

// ListQueue returns pending mutations in ascending enqueued_at order.
func (s *Store) ListQueue(ctx context.Context) ([]models.PendingMutation, error) {
	list, err := s.r.queue.List(ctx)
	return list, unavailable("list queue", err)
}

// QueuedFor returns how many mutations target id.
func (s *Store) QueuedFor(ctx context.Context, id string) (int, error) {
	list, err := s.r.queue.ListByEntry(ctx, id)
	return len(list), unavailable("queued for", err)
}

// RecordFailure bumps the attempt counter of a queue slot and stores the
// cause's message. The slot stays queued.
func (s *Store) RecordFailure(ctx context.Context, queueID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return unavailable("record failure", s.r.queue.RecordFailure(ctx, queueID, msg))
}

// ClearAll wipes cached entries, the queue and any lease.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.withTx(ctx, "clear all", func(ctx context.Context, r repos) error {
		if err := r.queue.Clear(ctx); err != nil {
			return err
		}
		if err := r.entries.Clear(ctx); err != nil {
			return err
		}
		return r.lease.Clear(ctx)
	})
}

// HasAnyData reports whether any entry or queued mutation exists.
func (s *Store) HasAnyData(ctx context.Context) (bool, error) {
	n, err := s.r.queue.Count(ctx)
	if err != nil {
		return false, unavailable("has any data", err)
	}
	if n > 0 {
		return true, nil
	}
	n, err = s.r.entries.Count(ctx)
	if err != nil {
		return false, unavailable("has any data", err)
	}
	return n > 0, nil
}

// PendingCount returns the number of queued mutations, which is what the
// prompt shows and what logout warns about.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	n, err := s.r.queue.Count(ctx)
	return n, unavailable("pending count", err)
}

// AcquireSyncLease takes the cross-process drain lease for holder, or
// extends it when holder already owns it.
//
// Parameters:
//
//	holder - stable id of the caller for the lifetime of its process
//	ttl    - how long the lease stays valid without renewal
//
// Returns:
//
//	true when holder owns the lease until now+ttl; false when another holder
//	owns an unexpired lease. A lease whose expiry has passed is taken over.
func (s *Store) AcquireSyncLease(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	ok, err := s.r.lease.TryAcquire(ctx, SyncLeaseName, holder, s.now(), ttl)
	return ok, unavailable("acquire lease", err)
}

// ReleaseSyncLease drops the lease if holder still owns it.
func (s *Store) ReleaseSyncLease(ctx context.Context, holder string) error {
	return unavailable("release lease", s.r.lease.Release(ctx, SyncLeaseName, holder))
}
