package canvas

import (
	"context"
	"time"
)

// FeedFetcher retrieves and parses a remote ICS feed into events.
// Implementations must reject non-http(s) URLs before dialing and must not
// return partial results on failure.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]Event, error)
}

// UpsertReminderParams identifies a canvas reminder by its natural key
// (user, source=canvas, source ID) and carries the fields a sync overwrites.
type UpsertReminderParams struct {
	UserID      int64
	Title       string
	Description *string
	DueAt       time.Time
	SourceID    string
}

// Tx is the transactional surface the reconciler writes through. All calls on
// one Tx share a single store transaction; either every write commits or none.
type Tx interface {
	// UpsertReminder inserts a canvas reminder (completion false) or, when the
	// natural key matches, overwrites title, description, and due date in
	// place, leaving the completion flag and row ID untouched. Reports whether
	// a new row was inserted.
	UpsertReminder(ctx context.Context, params UpsertReminderParams) (inserted bool, err error)

	// DeleteRemindersExcept removes the user's canvas reminders whose source
	// ID is not in keepUIDs, returning the number removed. An empty keepUIDs
	// removes all of the user's canvas reminders. Manual reminders are never
	// touched.
	DeleteRemindersExcept(ctx context.Context, userID int64, keepUIDs []string) (int, error)

	// UpsertConnection records the feed URL used and the sync completion time.
	UpsertConnection(ctx context.Context, userID int64, feedURL string, lastSyncedAt time.Time) error
}

// Store opens the transaction boundary for a reconciliation run.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// ConnectionRepository defines non-transactional access to connection records.
type ConnectionRepository interface {
	// GetByUserID returns the user's connection or ErrConnectionNotFound.
	GetByUserID(ctx context.Context, userID int64) (*Connection, error)

	// Upsert creates or replaces the user's connection. Reports whether a new
	// record was inserted.
	Upsert(ctx context.Context, userID int64, feedURL string, lastSyncedAt *time.Time) (*Connection, bool, error)

	// List returns every connection with a feed URL on record.
	List(ctx context.Context) ([]*Connection, error)
}
