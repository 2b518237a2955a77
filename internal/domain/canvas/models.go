package canvas

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Source is the origin value stamped on every reminder imported from Canvas.
// Manual reminders carry a NULL source and are invisible to reconciliation.
const Source = "canvas"

// Domain errors
var (
	// ErrInvalidFeedURL means the feed URL is malformed or not http/https.
	// Returned before any network call or store write.
	ErrInvalidFeedURL = errors.New("invalid canvas feed url")

	// ErrSyncInProgress means another sync for the same user is already running.
	ErrSyncInProgress = errors.New("canvas sync already in progress for user")

	// ErrConnectionNotFound means the user has no canvas connection on record.
	ErrConnectionNotFound = errors.New("canvas connection not found")
)

// FetchError wraps a network, HTTP, or ICS parse failure while retrieving a
// feed. The fetch is all-or-nothing: no partial event list accompanies it.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch canvas feed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Event is a single calendar entry parsed from a Canvas ICS feed. Events are
// ephemeral: they exist only between fetch and reconciliation, never persisted
// as-is. Entries with no UID or no resolvable start time are dropped by the
// fetcher before reaching this type.
type Event struct {
	UID         string
	Summary     string
	Description *string
	DueAt       time.Time
}

// Connection records a user's Canvas feed URL and the time of the last
// committed sync. At most one exists per user.
type Connection struct {
	UserID       int64      `json:"userId"`
	FeedURL      string     `json:"icsUrl"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// SyncSummary reports the outcome of one committed reconciliation run.
type SyncSummary struct {
	Source      string    `json:"source"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Removed     int       `json:"removed"`
	TotalEvents int       `json:"totalEvents"`
	SyncedAt    time.Time `json:"syncedAt"`
}

// ValidateFeedURL checks that raw is a well-formed http or https URL.
func ValidateFeedURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidFeedURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidFeedURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidFeedURL
	}
	return nil
}
