package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// CompleteCreate records that the queued create queueID for tempID was
// accepted by the server as created. In one transaction it removes the temp
// row, stores the entry under its permanent id, re-points any later queued
// mutations at the permanent id and dequeues the create.
//
// When later mutations are still queued the local snapshot (newest user
// intent) is kept and stays pending; otherwise the server copy is stored as
// synced.
func (s *Store) CompleteCreate(ctx context.Context, queueID, tempID string, created models.Entry) error {
	return s.withTx(ctx, "complete create", func(ctx context.Context, r repos) error {
		queued, err := r.queue.ListByEntry(ctx, tempID)
		if err != nil {
			return err
		}
		stillQueued := false
		for _, m := range queued {
			if m.QueueID == queueID {
				stillQueued = true
				break
			}
		}

		local, err := r.entries.GetByID(ctx, tempID)
		localFound := err == nil
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if err := r.queue.Delete(ctx, queueID); err != nil {
			return err
		}
		if err := r.entries.DeleteByID(ctx, tempID); err != nil {
			return err
		}

		// Deleted locally while the create was in flight: the server now
		// has a record the user no longer wants.
		if !stillQueued && !localFound {
			return s.enqueue(ctx, r, models.PendingMutation{
				Operation: models.OpDelete,
				EntryID:   created.ID,
				Payload:   created,
			})
		}

		moved, err := r.queue.Retarget(ctx, tempID, created.ID)
		if err != nil {
			return err
		}

		if moved > 0 && localFound {
			local.ID = created.ID
			local.OwnerID = created.OwnerID
			local.RecordedAt = created.RecordedAt
			local.SyncState = models.SyncStatePending
			return r.entries.Upsert(ctx, local)
		}

		created.SyncState = models.SyncStateSynced
		return r.entries.Upsert(ctx, created)
	})
}

// CompleteUpdate dequeues an acknowledged update and stores the server copy
// as synced, unless newer mutations for the same entry are still queued.
func (s *Store) CompleteUpdate(ctx context.Context, queueID string, updated models.Entry) error {
	return s.withTx(ctx, "complete update", func(ctx context.Context, r repos) error {
		if err := r.queue.Delete(ctx, queueID); err != nil {
			return err
		}
		rest, err := r.queue.ListByEntry(ctx, updated.ID)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			return nil
		}
		updated.SyncState = models.SyncStateSynced
		return r.entries.Upsert(ctx, updated)
	})
}

// CompleteDelete dequeues an acknowledged delete.
func (s *Store) CompleteDelete(ctx context.Context, queueID, id string) error {
	return s.withTx(ctx, "complete delete", func(ctx context.Context, r repos) error {
		if err := r.queue.Delete(ctx, queueID); err != nil {
			return err
		}
		return r.entries.DeleteByID(ctx, id)
	})
}

// Discard forgets an entry the server no longer has: the cached row and
// every queued mutation for it.
func (s *Store) Discard(ctx context.Context, id string) error {
	return s.withTx(ctx, "discard", func(ctx context.Context, r repos) error {
		if _, err := r.queue.DeleteByEntry(ctx, id, ""); err != nil {
			return err
		}
		return r.entries.DeleteByID(ctx, id)
	})
}

// MergeRemote folds the server's full list of the owner's entries into the
// cache and returns how many were applied.
//
//   - A cached temp entry whose id matches a remote ClientRef was created on
//     the server but never dequeued; it is renamed and its queued create dropped.
//   - Entries with queued mutations keep the local copy under LocalWins. Under
//     ServerWins their queued updates are dropped and the server copy stored.
//   - Everything else is stored as synced.
//   - Synced cached entries the server no longer has are removed.
func (s *Store) MergeRemote(ctx context.Context, ownerID string, remote []models.Entry, policy models.ConflictPolicy) (int, error) {
	applied := 0
	err := s.withTx(ctx, "merge remote", func(ctx context.Context, r repos) error {
		applied = 0

		queued, err := r.queue.List(ctx)
		if err != nil {
			return err
		}
		pending := make(map[string]int, len(queued))
		for _, m := range queued {
			pending[m.EntryID]++
		}

		seen := make(map[string]struct{}, len(remote))
		for _, e := range remote {
			e.OwnerID = ownerID
			seen[e.ID] = struct{}{}

			if models.IsTempID(e.ClientRef) && pending[e.ClientRef] > 0 {
				n, err := s.adoptCreated(ctx, r, e)
				if err != nil {
					return err
				}
				pending[e.ID] += n
				delete(pending, e.ClientRef)
				applied++
				continue
			}

			if pending[e.ID] > 0 {
				if policy != models.ServerWins {
					continue
				}
				dropped, err := r.queue.DeleteByEntry(ctx, e.ID, models.OpUpdate)
				if err != nil {
					return err
				}
				pending[e.ID] -= int(dropped)
				if pending[e.ID] > 0 {
					// a queued delete still wins
					continue
				}
			}

			e.SyncState = models.SyncStateSynced
			if err := r.entries.Upsert(ctx, e); err != nil {
				return err
			}
			applied++
		}

		ids, err := r.entries.ListIDs(ctx, ownerID, models.SyncStateSynced)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok || pending[id] > 0 {
				continue
			}
			if err := r.entries.DeleteByID(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// adoptCreated renames the temp entry created as remote.ClientRef to the
// server id and drops its already-applied create. It returns how many
// mutations remain queued for the entry.
func (s *Store) adoptCreated(ctx context.Context, r repos, remote models.Entry) (int, error) {
	tempID := remote.ClientRef

	local, err := r.entries.GetByID(ctx, tempID)
	localFound := err == nil
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return 0, err
	}

	if _, err := r.queue.DeleteByEntry(ctx, tempID, models.OpCreate); err != nil {
		return 0, err
	}
	if _, err := r.queue.Retarget(ctx, tempID, remote.ID); err != nil {
		return 0, err
	}
	if err := r.entries.DeleteByID(ctx, tempID); err != nil {
		return 0, err
	}

	rest, err := r.queue.ListByEntry(ctx, remote.ID)
	if err != nil {
		return 0, err
	}

	if len(rest) > 0 && localFound {
		local.ID = remote.ID
		local.OwnerID = remote.OwnerID
		local.RecordedAt = remote.RecordedAt
		local.SyncState = models.SyncStatePending
		return len(rest), r.entries.Upsert(ctx, local)
	}
	if len(rest) > 0 {
		// only a delete can be left without a local row
		return len(rest), nil
	}

	remote.SyncState = models.SyncStateSynced
	return 0, r.entries.Upsert(ctx, remote)
}
