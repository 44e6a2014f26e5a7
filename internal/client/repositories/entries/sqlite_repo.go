package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/dbx"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, owner_id, category, label, amount, occurred_on, note, is_credit, recorded_at, client_ref, sync_state`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.Entry, error) {
	var (
		e          models.Entry
		note       sql.NullString
		recordedAt int64
	)
	err := s.Scan(&e.ID, &e.OwnerID, &e.Category, &e.Label, &e.Amount, &e.OccurredOn,
		&note, &e.IsCredit, &recordedAt, &e.ClientRef, &e.SyncState)
	if err != nil {
		return models.Entry{}, err
	}
	if note.Valid {
		n := note.String
		e.Note = &n
	}
	e.RecordedAt = time.UnixMilli(recordedAt).UTC()
	return e, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, e models.Entry) error {
	query := `
		INSERT INTO entries (` + selectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id    = excluded.owner_id,
			category    = excluded.category,
			label       = excluded.label,
			amount      = excluded.amount,
			occurred_on = excluded.occurred_on,
			note        = excluded.note,
			is_credit   = excluded.is_credit,
			recorded_at = excluded.recorded_at,
			client_ref  = excluded.client_ref,
			sync_state  = excluded.sync_state
	`
	var note sql.NullString
	if e.Note != nil {
		note = sql.NullString{String: *e.Note, Valid: true}
	}
	state := e.SyncState
	if state == "" {
		state = models.SyncStatePending
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, string(e.Category), e.Label, e.Amount.String(), e.OccurredOn,
		note, e.IsCredit, e.RecordedAt.UnixMilli(), e.ClientRef, string(state))
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, common.ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries
		WHERE owner_id = ?
		ORDER BY occurred_on DESC, recorded_at DESC, id`
	return r.list(ctx, query, ownerID)
}

func (r *SQLiteRepository) ListByState(ctx context.Context, state models.SyncState) ([]models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries
		WHERE sync_state = ?
		ORDER BY recorded_at, id`
	return r.list(ctx, query, string(state))
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListIDs(ctx context.Context, ownerID string, state models.SyncState) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM entries WHERE owner_id = ? AND sync_state = ?`, ownerID, string(state))
	if err != nil {
		return nil, fmt.Errorf("failed to select entry ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entry id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entry ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}
