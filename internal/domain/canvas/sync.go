package canvas

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Syncer is the reconciliation entry point consumed by the HTTP layer and the
// scheduler.
type Syncer interface {
	Sync(ctx context.Context, userID int64, feedURL string) (*SyncSummary, error)
}

// SyncService reconciles a user's Canvas feed against their stored canvas
// reminders. It holds no state between runs: every sync is a pure function of
// (user, feed URL, current store contents).
type SyncService struct {
	fetcher FeedFetcher
	store   Store

	// inFlight guards against two syncs for the same user interleaving. The
	// exclusion-delete in the reconciliation is not safe under concurrent runs
	// for a single user: one run could delete rows the other just inserted.
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

var _ Syncer = (*SyncService)(nil)

// NewSyncService creates a sync service backed by the given fetcher and store.
func NewSyncService(fetcher FeedFetcher, store Store) *SyncService {
	return &SyncService{
		fetcher:  fetcher,
		store:    store,
		inFlight: make(map[int64]struct{}),
	}
}

// Sync fetches the user's feed and reconciles it with the store inside a
// single transaction:
//
//  1. every event is upserted by (user, source=canvas, event UID) — inserts
//     start uncompleted, updates overwrite title/description/due date only;
//  2. canvas reminders whose UID was not seen in this pass are deleted;
//  3. the connection record is stamped with the feed URL and sync time.
//
// On any failure the transaction rolls back in full and the connection's
// last-synced marker is left unchanged. An empty feed is valid and removes
// all of the user's canvas reminders. Running twice against an unchanged feed
// yields created=0, removed=0 on the second run.
func (s *SyncService) Sync(ctx context.Context, userID int64, feedURL string) (*SyncSummary, error) {
	if err := ValidateFeedURL(feedURL); err != nil {
		return nil, err
	}

	if !s.acquire(userID) {
		return nil, fmt.Errorf("%w: user %d", ErrSyncInProgress, userID)
	}
	defer s.release(userID)

	events, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{
		Source:      Source,
		TotalEvents: len(events),
		SyncedAt:    time.Now().UTC(),
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		seen := make([]string, 0, len(events))
		for _, ev := range events {
			inserted, err := tx.UpsertReminder(ctx, UpsertReminderParams{
				UserID:      userID,
				Title:       ev.Summary,
				Description: ev.Description,
				DueAt:       ev.DueAt,
				SourceID:    ev.UID,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert reminder %q: %w", ev.UID, err)
			}
			seen = append(seen, ev.UID)
			if inserted {
				summary.Created++
			} else {
				summary.Updated++
			}
		}

		removed, err := tx.DeleteRemindersExcept(ctx, userID, seen)
		if err != nil {
			return fmt.Errorf("failed to remove stale reminders: %w", err)
		}
		summary.Removed = removed

		if err := tx.UpsertConnection(ctx, userID, feedURL, summary.SyncedAt); err != nil {
			return fmt.Errorf("failed to update canvas connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Canvas sync completed for user %d: events=%d, created=%d, updated=%d, removed=%d",
		userID, summary.TotalEvents, summary.Created, summary.Updated, summary.Removed)

	return summary, nil
}

func (s *SyncService) acquire(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *SyncService) release(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}
