package entries

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// Repository describes the table-level operations on cached entries.
type Repository interface {
	// Upsert inserts the entry or replaces the row with the same id.
	Upsert(ctx context.Context, e models.Entry) error

	// GetByID returns common.ErrNotFound when the id is absent.
	GetByID(ctx context.Context, id string) (models.Entry, error)

	// DeleteByID removes the row; a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// ListByOwner orders by occurred_on desc, then recorded_at desc.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Entry, error)

	ListByState(ctx context.Context, state models.SyncState) ([]models.Entry, error)

	// ListIDs returns ids of the owner's entries in the given state.
	ListIDs(ctx context.Context, ownerID string, state models.SyncState) ([]string, error)

	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
