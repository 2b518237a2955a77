package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"ontime/internal/domain/canvas"
)

// CanvasStore implements canvas.Store: it opens the single transaction a
// reconciliation run writes through.
type CanvasStore struct {
	db *DB
}

// NewCanvasStore creates a new PostgreSQL-backed canvas store
func NewCanvasStore(db *DB) *CanvasStore {
	return &CanvasStore{db: db}
}

// WithTx runs fn inside one database transaction. Any error from fn rolls the
// transaction back in full; only a nil return commits.
func (s *CanvasStore) WithTx(ctx context.Context, fn func(tx canvas.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sync transaction: %w", err)
	}

	if err := fn(&canvasTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("Error rolling back sync transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync transaction: %w", err)
	}
	return nil
}

type canvasTx struct {
	tx *sql.Tx
}

// UpsertReminder inserts or updates a canvas reminder by its natural key.
// Inserts start uncompleted; updates overwrite title, description, and due
// date while leaving is_completed and the row ID alone. The (xmax = 0) column
// distinguishes a fresh insert from a conflict update.
func (t *canvasTx) UpsertReminder(ctx context.Context, params canvas.UpsertReminderParams) (bool, error) {
	query := `
		INSERT INTO reminders (user_id, title, description, due_at, source, source_id, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (user_id, source, source_id) WHERE source IS NOT NULL AND source_id IS NOT NULL
		DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			due_at = EXCLUDED.due_at,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := t.tx.QueryRowContext(
		ctx, query,
		params.UserID, params.Title, nullString(params.Description), params.DueAt,
		canvas.Source, params.SourceID,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert canvas reminder: %w", err)
	}

	return inserted, nil
}

// DeleteRemindersExcept removes the user's canvas reminders whose source_id
// is not in keepUIDs. Manual reminders (NULL source) are never matched.
func (t *canvasTx) DeleteRemindersExcept(ctx context.Context, userID int64, keepUIDs []string) (int, error) {
	var result sql.Result
	var err error

	if len(keepUIDs) == 0 {
		query := `DELETE FROM reminders WHERE user_id = $1 AND source = $2`
		result, err = t.tx.ExecContext(ctx, query, userID, canvas.Source)
	} else {
		query := `
			DELETE FROM reminders
			WHERE user_id = $1
			  AND source = $2
			  AND (source_id IS NULL OR source_id <> ALL($3))
		`
		result, err = t.tx.ExecContext(ctx, query, userID, canvas.Source, pq.Array(keepUIDs))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale canvas reminders: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(removed), nil
}

// UpsertConnection stamps the connection record with the feed URL used and
// the sync completion time, inside the run's transaction.
func (t *canvasTx) UpsertConnection(ctx context.Context, userID int64, feedURL string, lastSyncedAt time.Time) error {
	query := `
		INSERT INTO canvas_connections (user_id, ics_url, last_synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			ics_url = EXCLUDED.ics_url,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = NOW()
	`

	if _, err := t.tx.ExecContext(ctx, query, userID, feedURL, lastSyncedAt); err != nil {
		return fmt.Errorf("failed to upsert canvas connection: %w", err)
	}
	return nil
}
