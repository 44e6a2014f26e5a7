// Package queue persists pending mutations awaiting replay against the
// server. Rows are kept in enqueued_at order; nothing else implies order.
package queue

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, m models.PendingMutation) error
	// Delete removes one slot; a missing queue id is not an error.
	Delete(ctx context.Context, queueID string) error
	// List returns every slot ascending by enqueued_at.
	List(ctx context.Context) ([]models.PendingMutation, error)
	ListByEntry(ctx context.Context, entryID string) ([]models.PendingMutation, error)
	// DeleteByEntry drops every slot targeting entryID, optionally only one operation kind.
	DeleteByEntry(ctx context.Context, entryID string, op models.Operation) (int64, error)
	// Retarget rewrites slots (and their payload ids) from one entry id to another.
	Retarget(ctx context.Context, fromID, toID string) (int64, error)
	RecordFailure(ctx context.Context, queueID string, msg string) error
	// MaxEnqueuedAt returns the newest enqueued_at in unix nanoseconds, 0 when empty.
	MaxEnqueuedAt(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
