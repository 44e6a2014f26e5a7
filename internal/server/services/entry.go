package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const maxClientRefLen = 64

// EntryService owns the server side of the ledger. Every method is scoped to
// ownerID, which the transport takes from the verified access token.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewEntryService(db *sql.DB, repomanager repomanager.RepositoryManager) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: repomanager,
		now:         time.Now,
	}
}

func (s *EntryService) List(ctx context.Context, ownerID string) ([]models.Entry, error) {
	list, err := s.repomanager.Entries(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}

func (s *EntryService) Get(ctx context.Context, ownerID, id string) (*models.Entry, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	e, err := s.repomanager.Entries(s.db).Get(ctx, ownerID, id)
	if err != nil {
		return nil, wrapRepoErr("getting", err)
	}
	return e, nil
}

// Create stores e for ownerID and assigns its id. A repeated ClientRef
// returns the entry stored the first time instead of a duplicate. A client
// supplied RecordedAt is kept, so offline captures keep their capture time.
func (s *EntryService) Create(ctx context.Context, ownerID string, e models.Entry) (*models.Entry, error) {
	if err := models.Validate(e); err != nil {
		return nil, err
	}
	if len(e.ClientRef) > maxClientRefLen {
		return nil, fmt.Errorf("%w: client_ref must be at most %d characters", common.ErrValidation, maxClientRefLen)
	}

	e.ID = ""
	e.OwnerID = ownerID
	if e.RecordedAt.IsZero() || e.RecordedAt.After(s.now().Add(time.Minute)) {
		e.RecordedAt = s.now()
	}
	e.RecordedAt = e.RecordedAt.UTC()

	stored, _, err := s.repomanager.Entries(s.db).Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}
	return stored, nil
}

// Update replaces the editable fields of the entry e.ID.
func (s *EntryService) Update(ctx context.Context, ownerID string, e models.Entry) (*models.Entry, error) {
	if !validID(e.ID) {
		return nil, common.ErrNotFound
	}
	if err := models.Validate(e); err != nil {
		return nil, err
	}
	e.OwnerID = ownerID

	stored, err := s.repomanager.Entries(s.db).Update(ctx, e)
	if err != nil {
		return nil, wrapRepoErr("updating", err)
	}
	return stored, nil
}

func (s *EntryService) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	if err := s.repomanager.Entries(s.db).Delete(ctx, ownerID, id); err != nil {
		return wrapRepoErr("deleting", err)
	}
	return nil
}

// validID rejects ids Postgres cannot parse as UUID, e.g. client temp ids.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func wrapRepoErr(op string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	return fmt.Errorf("error %s entry: %w", op, err)
}
