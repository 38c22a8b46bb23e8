package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/observability"
)

// EntryRepository provides Postgres-backed persistence for published
// journal entries. Raw tool payloads never reach this layer.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository constructs an EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Save persists a published entry. Saving the same entry ID twice is a
// no-op so a retried save request stays idempotent.
func (r *EntryRepository) Save(ctx context.Context, entry domain.SavedEntry) error {
	body, err := json.Marshal(entry.Entry)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", entry.TenantID); err != nil {
		return err
	}

	const stmt = `INSERT INTO journal_entries (entry_id, tenant_id, user_id, narrative, entry, saved_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (entry_id) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		entry.ID,
		entry.TenantID,
		entry.UserID,
		entry.Narrative,
		body,
		entry.SavedAt,
	)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordEntrySaved(entry.SavedAt)
	return nil
}

// Get retrieves a saved entry by ID. A missing entry returns nil, nil.
func (r *EntryRepository) Get(ctx context.Context, tenantID, entryID string) (*domain.SavedEntry, error) {
	const query = `SELECT entry_id, tenant_id, user_id, narrative, entry, saved_at
        FROM journal_entries WHERE tenant_id=$1 AND entry_id=$2`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, query, tenantID, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByUser returns saved entries for a user, newest first.
func (r *EntryRepository) ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.SavedEntry, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := `SELECT entry_id, tenant_id, user_id, narrative, entry, saved_at
        FROM journal_entries WHERE tenant_id=$1 AND user_id=$2`

	if cursor != nil {
		query += ` AND (saved_at, entry_id) < ($4, $5)`
		args = append(args, cursor.SavedAt, cursor.ID)
	}

	query += ` ORDER BY saved_at DESC, entry_id DESC LIMIT $3`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.SavedEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{SavedAt: last.SavedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

func scanEntry(row pgx.Row) (*domain.SavedEntry, error) {
	var (
		entry domain.SavedEntry
		body  []byte
	)
	if err := row.Scan(&entry.ID, &entry.TenantID, &entry.UserID, &entry.Narrative, &body, &entry.SavedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &entry.Entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
