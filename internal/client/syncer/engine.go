// Package syncer reconciles the local store with the server: it pulls the
// owner's authoritative entries, then drains the pending-mutation queue in
// enqueue order, swapping temp ids for server ids as creates land.
//
// One Engine is constructed per local store and injected wherever a sync
// can be triggered. SyncNow never returns an error; failures are counted in
// the returned models.SyncResult and logged.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/google/uuid"
)

// Store is the part of the local durable store the engine drives.
type Store interface {
	ListQueue(ctx context.Context) ([]models.PendingMutation, error)
	MergeRemote(ctx context.Context, ownerID string, remote []models.Entry, policy models.ConflictPolicy) (int, error)
	CompleteCreate(ctx context.Context, queueID, tempID string, created models.Entry) error
	CompleteUpdate(ctx context.Context, queueID string, updated models.Entry) error
	CompleteDelete(ctx context.Context, queueID, id string) error
	Discard(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, queueID string, cause error) error
	AcquireSyncLease(ctx context.Context, holder string, ttl time.Duration) (bool, error)
	ReleaseSyncLease(ctx context.Context, holder string) error
}

// Remote is the server side of reconciliation.
type Remote interface {
	ListEntries(ctx context.Context) ([]models.Entry, error)
	CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Identity resolves the signed-in owner; common.ErrUnauthorized when nobody is.
type Identity interface {
	CurrentOwner(ctx context.Context) (string, error)
}

// Connectivity is what Run needs from the connectivity monitor.
type Connectivity interface {
	IsOnline() bool
	Reconnected() <-chan struct{}
}

// Config tunes an Engine. Zero values fall back to the defaults below.
type Config struct {
	Policy   models.ConflictPolicy
	Interval time.Duration
	// LeaseTTL is how long the drain lease survives without renewal. The
	// lease is renewed before every queue item, so it only needs to outlast
	// one item including its retries.
	LeaseTTL time.Duration
	// MaxRetries bounds per-item retries of transient remote failures.
	MaxRetries uint64
}

// Defaults applied by NewEngine.
const (
	DefaultInterval   = 30 * time.Second
	DefaultLeaseTTL   = 2 * time.Minute
	DefaultMaxRetries = 2
)

// Engine runs sync cycles against one local store. Its methods are safe to
// call from several goroutines; overlapping SyncNow calls are skipped.
type Engine struct {
	store    Store
	remote   Remote
	identity Identity
	log      logging.Logger
	cfg      Config
	holder   string

	syncing    atomic.Bool
	newBackOff func() backoff.BackOff

	mu       sync.Mutex
	last     models.SyncResult
	lastAt   time.Time
	lastSeen bool
}

// NewEngine builds an Engine with a fresh lease holder id.
//
// Parameters:
//
//	store    - local durable store
//	remote   - server client; transient failures must wrap common.ErrRemoteUnavailable
//	identity - resolves the signed-in owner
//	log      - parent logger; the engine logs under module=sync
//	cfg      - tuning, zero fields take the defaults
func NewEngine(store Store, remote Remote, identity Identity, log logging.Logger, cfg Config) *Engine {
	if cfg.Policy == "" {
		cfg.Policy = models.LocalWins
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Engine{
		store:    store,
		remote:   remote,
		identity: identity,
		log:      log.With("module", "sync"),
		cfg:      cfg,
		holder:   uuid.NewString(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
}

// Last returns the most recent non-skipped result and when it finished.
func (e *Engine) Last() (models.SyncResult, time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.lastAt, e.lastSeen
}

// SyncNow runs one pull-then-drain cycle. A call made while another is in
// flight, or with nobody signed in, returns models.Skipped immediately.
//
// Returns:
//
//	models.Skipped when the cycle did not run, including when another
//	process holds the lease. Otherwise Synced and Errors count queue items
//	and Pulled counts merged server entries. Success is false only when the
//	queue could not be read or the lease was lost part way through.
func (e *Engine) SyncNow(ctx context.Context) models.SyncResult {
	if !e.syncing.CompareAndSwap(false, true) {
		e.log.Debug(ctx, "sync already running, skipped")
		return models.Skipped
	}
	defer e.syncing.Store(false)

	owner, err := e.identity.CurrentOwner(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			e.log.Debug(ctx, "nobody signed in, nothing to sync")
		} else {
			e.log.Warn(ctx, "cannot resolve owner", "error", err)
		}
		return models.Skipped
	}

	ok, err := e.store.AcquireSyncLease(ctx, e.holder, e.cfg.LeaseTTL)
	if err != nil {
		e.log.Error(ctx, "cannot take sync lease", "error", err)
		return models.Skipped
	}
	if !ok {
		e.log.Info(ctx, "another process is syncing, skipped")
		return models.Skipped
	}
	defer func() {
		if err := e.store.ReleaseSyncLease(context.WithoutCancel(ctx), e.holder); err != nil {
			e.log.Warn(ctx, "cannot release sync lease", "error", err)
		}
	}()

	log := e.log.With("owner", owner)
	result := models.SyncResult{Success: true}

	result.Pulled = e.pull(ctx, log, owner)

	synced, failed, err := e.drain(ctx, log, owner)
	result.Synced, result.Errors = synced, failed
	if err != nil {
		log.Error(ctx, "drain stopped", "error", err)
		result.Success = false
	}

	log.Info(ctx, "sync finished", "pulled", result.Pulled, "synced", result.Synced, "errors", result.Errors)

	e.mu.Lock()
	e.last, e.lastAt, e.lastSeen = result, time.Now(), true
	e.mu.Unlock()

	return result
}

// pull merges the server's view into the cache. Failures are logged and
// treated as nothing to pull.
func (e *Engine) pull(ctx context.Context, log logging.Logger, owner string) int {
	var remote []models.Entry
	err := e.retry(ctx, func() error {
		var err error
		remote, err = e.remote.ListEntries(ctx)
		return err
	})
	if err != nil {
		log.Warn(ctx, "pull failed, draining local state only", "error", err)
		return 0
	}

	n, err := e.store.MergeRemote(ctx, owner, remote, e.cfg.Policy)
	if err != nil {
		log.Error(ctx, "cannot merge pulled entries", "error", err)
		return 0
	}
	return n
}

// errLeaseLost stops a drain whose lease another process has taken over.
var errLeaseLost = errors.New("sync lease lost")

// drain replays the queue in order. Each item succeeds or fails on its own,
// but once an item fails every later item for the same entry is held back
// until the next round, so mutations never reach the server out of order.
// The lease is renewed before each item; if it cannot be, the drain stops
// with errLeaseLost and the rest of the queue is left for its new holder.
func (e *Engine) drain(ctx context.Context, log logging.Logger, owner string) (synced, failed int, err error) {
	queue, err := e.store.ListQueue(ctx)
	if err != nil {
		return 0, 0, err
	}

	resolved := make(map[string]string)
	discarded := make(map[string]bool)
	blocked := make(map[string]bool)

	for i, m := range queue {
		if ctx.Err() != nil {
			log.Warn(ctx, "sync interrupted", "remaining", len(queue)-i)
			break
		}

		ok, err := e.store.AcquireSyncLease(ctx, e.holder, e.cfg.LeaseTTL)
		if err != nil || !ok {
			log.Warn(ctx, "cannot renew sync lease, stopping", "remaining", len(queue)-i, "error", err)
			return synced, failed, errLeaseLost
		}

		id := m.EntryID
		if perm, ok := resolved[id]; ok {
			id = perm
		}
		if discarded[id] {
			continue
		}
		if blocked[id] {
			failed++
			log.Warn(ctx, "held back behind a failed mutation", "queue_id", m.QueueID, "op", m.Operation, "entry_id", id)
			continue
		}
		// still a temp id: its create failed in an earlier round
		if m.Operation != models.OpCreate && models.IsTempID(id) {
			failed++
			log.Warn(ctx, "held back until its create is synced", "queue_id", m.QueueID, "op", m.Operation, "entry_id", id)
			continue
		}

		m.Payload.ID = id
		err = e.apply(ctx, owner, m, id, resolved, discarded)
		if err == nil {
			synced++
			continue
		}

		failed++
		blocked[id] = true
		log.Warn(ctx, "mutation not synced", "queue_id", m.QueueID, "op", m.Operation, "entry_id", id, "error", err)
		if rerr := e.store.RecordFailure(ctx, m.QueueID, err); rerr != nil {
			log.Error(ctx, "cannot record failure", "queue_id", m.QueueID, "error", rerr)
		}
	}
	return synced, failed, nil
}

func (e *Engine) apply(ctx context.Context, owner string, m models.PendingMutation, id string, resolved map[string]string, discarded map[string]bool) error {
	payload := m.Payload
	payload.OwnerID = owner

	switch m.Operation {
	case models.OpCreate:
		if payload.ClientRef == "" {
			payload.ClientRef = m.EntryID
		}
		var created models.Entry
		err := e.retry(ctx, func() error {
			var err error
			created, err = e.remote.CreateEntry(ctx, payload)
			return err
		})
		if err != nil {
			return err
		}
		if created.OwnerID == "" {
			created.OwnerID = owner
		}
		if err := e.store.CompleteCreate(ctx, m.QueueID, m.EntryID, created); err != nil {
			return err
		}
		resolved[m.EntryID] = created.ID
		return nil

	case models.OpUpdate:
		var updated models.Entry
		err := e.retry(ctx, func() error {
			var err error
			updated, err = e.remote.UpdateEntry(ctx, payload)
			return err
		})
		if errors.Is(err, common.ErrNotFound) {
			// removed elsewhere; the local copy and its queue go too
			discarded[id] = true
			return e.store.Discard(ctx, id)
		}
		if err != nil {
			return err
		}
		if updated.OwnerID == "" {
			updated.OwnerID = owner
		}
		return e.store.CompleteUpdate(ctx, m.QueueID, updated)

	case models.OpDelete:
		err := e.retry(ctx, func() error {
			return e.remote.DeleteEntry(ctx, id)
		})
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return e.store.CompleteDelete(ctx, m.QueueID, id)
	}

	return fmt.Errorf("unknown operation %q", m.Operation)
}

// retry repeats op while it fails with a transient remote error.
func (e *Engine) retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), e.cfg.MaxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, common.ErrRemoteUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

// Run triggers SyncNow on every reconnection edge and on each tick while
// online, until ctx is done.
func (e *Engine) Run(ctx context.Context, conn Connectivity) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Reconnected():
			e.log.Info(ctx, "back online, syncing")
			e.SyncNow(ctx)
		case <-ticker.C:
			if conn.IsOnline() {
				e.SyncNow(ctx)
			}
		}
	}
}
