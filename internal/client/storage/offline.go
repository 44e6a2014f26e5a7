package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// SaveOffline mints a temp id, stores the entry as pending and queues its
// create in one transaction. It returns the temp id.
//
// A temp id already present in e.ClientRef is reused, so a create that was
// attempted directly keeps its idempotency key when it falls back here.
func (s *Store) SaveOffline(ctx context.Context, e models.Entry) (string, error) {
	now := s.now()
	e = e.Clone()
	e.ID = e.ClientRef
	if !models.IsTempID(e.ID) {
		e.ID = models.NewTempID(now)
	}
	e.ClientRef = e.ID
	e.SyncState = models.SyncStatePending
	if e.RecordedAt.IsZero() {
		e.RecordedAt = now.UTC()
	}

	err := s.withTx(ctx, "save offline", func(ctx context.Context, r repos) error {
		if err := r.entries.Upsert(ctx, e); err != nil {
			return err
		}
		return s.enqueue(ctx, r, models.PendingMutation{
			Operation: models.OpCreate,
			EntryID:   e.ID,
			Payload:   e,
		})
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateOffline applies patch to the cached entry, marks it pending and
// queues an update carrying the full snapshot.
func (s *Store) UpdateOffline(ctx context.Context, id string, patch models.EntryPatch) (models.Entry, error) {
	var updated models.Entry
	err := s.withTx(ctx, "update offline", func(ctx context.Context, r repos) error {
		cur, err := r.entries.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(cur)
		updated.SyncState = models.SyncStatePending
		if err := models.Validate(updated); err != nil {
			return err
		}
		if err := r.entries.Upsert(ctx, updated); err != nil {
			return err
		}
		return s.enqueue(ctx, r, models.PendingMutation{
			Operation: models.OpUpdate,
			EntryID:   id,
			Payload:   updated,
		})
	})
	if err != nil {
		return models.Entry{}, err
	}
	return updated, nil
}

// DeleteOffline removes the cached entry and tombstones it in the queue.
//
// An entry whose create is still queued never reached the server, so its
// create and every later mutation are dropped and nothing is enqueued.
// Deleting a missing id succeeds.
func (s *Store) DeleteOffline(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete offline", func(ctx context.Context, r repos) error {
		queued, err := r.queue.ListByEntry(ctx, id)
		if err != nil {
			return err
		}
		if hasCreate(queued) || models.IsTempID(id) {
			if _, err := r.queue.DeleteByEntry(ctx, id, ""); err != nil {
				return err
			}
			return r.entries.DeleteByID(ctx, id)
		}

		payload := models.Entry{ID: id}
		cur, err := r.entries.GetByID(ctx, id)
		switch {
		case err == nil:
			payload = cur
		case errors.Is(err, common.ErrNotFound):
		default:
			return err
		}

		// Queued updates would only be overwritten by the delete.
		if _, err := r.queue.DeleteByEntry(ctx, id, models.OpUpdate); err != nil {
			return err
		}
		if err := r.entries.DeleteByID(ctx, id); err != nil {
			return err
		}
		return s.enqueue(ctx, r, models.PendingMutation{
			Operation: models.OpDelete,
			EntryID:   id,
			Payload:   payload,
		})
	})
}

// ListOffline returns the owner's cached entries, pending ones included.
func (s *Store) ListOffline(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return s.ListByOwner(ctx, ownerID)
}

func hasCreate(list []models.PendingMutation) bool {
	for _, m := range list {
		if m.Operation == models.OpCreate {
			return true
		}
	}
	return false
}
