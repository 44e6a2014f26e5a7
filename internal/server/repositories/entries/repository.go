package entries

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// Repository stores ledger entries. Every call is scoped to one owner;
// rows of other owners behave as if absent.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]models.Entry, error)
	Get(ctx context.Context, ownerID, id string) (*models.Entry, error)

	// Create inserts e, or returns the row already stored under
	// (e.OwnerID, e.ClientRef) with created=false.
	Create(ctx context.Context, e models.Entry) (stored *models.Entry, created bool, err error)

	Update(ctx context.Context, e models.Entry) (*models.Entry, error)
	Delete(ctx context.Context, ownerID, id string) error
}
