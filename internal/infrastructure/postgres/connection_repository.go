package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ontime/internal/domain/canvas"
)

// ConnectionRepository implements the canvas.ConnectionRepository interface
// for PostgreSQL
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetByUserID retrieves the user's canvas connection
func (r *ConnectionRepository) GetByUserID(ctx context.Context, userID int64) (*canvas.Connection, error) {
	query := `
		SELECT user_id, ics_url, last_synced_at, created_at, updated_at
		FROM canvas_connections
		WHERE user_id = $1
	`

	var conn canvas.Connection
	var lastSyncedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&conn.UserID, &conn.FeedURL, &lastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, canvas.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canvas connection: %w", err)
	}

	conn.LastSyncedAt = timePtr(lastSyncedAt)
	return &conn, nil
}

// Upsert creates or replaces the user's canvas connection
func (r *ConnectionRepository) Upsert(ctx context.Context, userID int64, feedURL string, lastSyncedAt *time.Time) (*canvas.Connection, bool, error) {
	query := `
		INSERT INTO canvas_connections (user_id, ics_url, last_synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			ics_url = EXCLUDED.ics_url,
			last_synced_at = COALESCE(EXCLUDED.last_synced_at, canvas_connections.last_synced_at),
			updated_at = NOW()
		RETURNING user_id, ics_url, last_synced_at, created_at, updated_at, (xmax = 0) AS inserted
	`

	var conn canvas.Connection
	var syncedAt sql.NullTime
	var inserted bool

	err := r.db.QueryRowContext(ctx, query, userID, feedURL, nullTime(lastSyncedAt)).Scan(
		&conn.UserID, &conn.FeedURL, &syncedAt, &conn.CreatedAt, &conn.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert canvas connection: %w", err)
	}

	conn.LastSyncedAt = timePtr(syncedAt)
	return &conn, inserted, nil
}

// List returns every canvas connection with a feed URL on record
func (r *ConnectionRepository) List(ctx context.Context) ([]*canvas.Connection, error) {
	query := `
		SELECT user_id, ics_url, last_synced_at, created_at, updated_at
		FROM canvas_connections
		WHERE ics_url IS NOT NULL AND ics_url <> ''
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvas connections: %w", err)
	}
	defer rows.Close()

	var conns []*canvas.Connection
	for rows.Next() {
		var conn canvas.Connection
		var lastSyncedAt sql.NullTime
		if err := rows.Scan(&conn.UserID, &conn.FeedURL, &lastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan canvas connection: %w", err)
		}
		conn.LastSyncedAt = timePtr(lastSyncedAt)
		conns = append(conns, &conn)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating canvas connections: %w", err)
	}

	return conns, nil
}
