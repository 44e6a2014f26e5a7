package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/dbx"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `queue_id, operation, entry_id, payload, enqueued_at, attempts, last_error`

func (r *SQLiteRepository) Insert(ctx context.Context, m models.PendingMutation) error {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", m.QueueID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (queue_id, operation, entry_id, payload, enqueued_at, attempts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.QueueID, string(m.Operation), m.EntryID, string(payload), m.EnqueuedAt.UnixNano(), m.Attempts)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", m.Operation, m.EntryID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, queueID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE queue_id = ?`, queueID); err != nil {
		return fmt.Errorf("failed to dequeue %s: %w", queueID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingMutation, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM sync_queue ORDER BY enqueued_at, queue_id`)
}

func (r *SQLiteRepository) ListByEntry(ctx context.Context, entryID string) ([]models.PendingMutation, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM sync_queue WHERE entry_id = ? ORDER BY enqueued_at, queue_id`, entryID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.PendingMutation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	result := []models.PendingMutation{}
	for rows.Next() {
		var (
			m          models.PendingMutation
			payload    string
			enqueuedAt int64
			lastErr    sql.NullString
		)
		if err := rows.Scan(&m.QueueID, &m.Operation, &m.EntryID, &payload, &enqueuedAt, &m.Attempts, &lastErr); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &m.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for %s: %w", m.QueueID, err)
		}
		m.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
		m.LastError = lastErr.String
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByEntry(ctx context.Context, entryID string, op models.Operation) (int64, error) {
	query := `DELETE FROM sync_queue WHERE entry_id = ?`
	args := []any{entryID}
	if op != "" {
		query += ` AND operation = ?`
		args = append(args, string(op))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to drop queued mutations for %s: %w", entryID, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Retarget(ctx context.Context, fromID, toID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET entry_id = ?, payload = json_set(payload, '$.id', ?)
		WHERE entry_id = ?
	`, toID, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("failed to retarget queue %s -> %s: %w", fromID, toID, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, queueID string, msg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET attempts = attempts + 1, last_error = ? WHERE queue_id = ?`, msg, queueID)
	if err != nil {
		return fmt.Errorf("failed to record failure for %s: %w", queueID, err)
	}
	return nil
}

func (r *SQLiteRepository) MaxEnqueuedAt(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(enqueued_at) FROM sync_queue`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read queue head: %w", err)
	}
	return v.Int64, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
