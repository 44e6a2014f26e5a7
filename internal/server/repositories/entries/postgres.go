// Package entries provides the PostgreSQL-backed repository for ledger entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/dbx"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

const columns = `id, owner_id, client_ref, category, label, amount, occurred_on, note, is_credit, recorded_at`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner, extra ...any) (*models.Entry, error) {
	var (
		e   models.Entry
		ref sql.NullString
	)
	dest := append([]any{&e.ID, &e.OwnerID, &ref, &e.Category, &e.Label, &e.Amount,
		&e.OccurredOn, &e.Note, &e.IsCredit, &e.RecordedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	e.ClientRef = ref.String
	e.SyncState = models.SyncStateSynced
	return &e, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := `SELECT ` + columns + `
		FROM entries
		WHERE owner_id = $1
		ORDER BY occurred_on DESC, recorded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Entry, error) {
	query := `SELECT ` + columns + `
		FROM entries
		WHERE id = $1 AND owner_id = $2`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Create relies on the (owner_id, client_ref) unique constraint. The no-op
// DO UPDATE makes RETURNING yield the existing row, and xmax = 0 tells a
// fresh insert apart from a replay. A NULL client_ref never conflicts.
func (r *PostgresRepository) Create(ctx context.Context, e models.Entry) (*models.Entry, bool, error) {
	query := `
		INSERT INTO entries (owner_id, client_ref, category, label, amount, occurred_on, note, is_credit, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT entries_owner_client_ref_key
		DO UPDATE SET client_ref = EXCLUDED.client_ref
		RETURNING ` + columns + `, (xmax = 0) AS inserted`

	var created bool
	stored, err := scanEntry(r.db.QueryRowContext(ctx, query,
		e.OwnerID, nullable(e.ClientRef), string(e.Category), e.Label, e.Amount,
		e.OccurredOn, e.Note, e.IsCredit, e.RecordedAt), &created)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	return stored, created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, e models.Entry) (*models.Entry, error) {
	query := `
		UPDATE entries
		SET category = $3, label = $4, amount = $5, occurred_on = $6, note = $7, is_credit = $8, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + columns

	stored, err := scanEntry(r.db.QueryRowContext(ctx, query,
		e.ID, e.OwnerID, string(e.Category), e.Label, e.Amount, e.OccurredOn, e.Note, e.IsCredit))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.AffectedOne(res)
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if !ok {
		return common.ErrNotFound
	}
	return nil
}
