package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"ontime/internal/domain/canvas"
)

// CanvasSyncJob implements the Job interface for reconciling one user's
// Canvas feed.
type CanvasSyncJob struct {
	userID  int64
	feedURL string
	syncer  canvas.Syncer
}

// NewCanvasSyncJob creates a sync job for a user's stored feed URL
func NewCanvasSyncJob(userID int64, feedURL string, syncer canvas.Syncer) *CanvasSyncJob {
	return &CanvasSyncJob{
		userID:  userID,
		feedURL: feedURL,
		syncer:  syncer,
	}
}

// Execute runs the canvas sync job. A sync already in flight for the user
// (e.g. triggered manually over HTTP) is skipped rather than treated as a
// failure; the next sweep picks the user up again.
func (j *CanvasSyncJob) Execute(ctx context.Context) error {
	summary, err := j.syncer.Sync(ctx, j.userID, j.feedURL)
	if err != nil {
		if errors.Is(err, canvas.ErrSyncInProgress) {
			log.Printf("Canvas sync for user %d skipped: another sync is in progress", j.userID)
			return nil
		}
		return fmt.Errorf("canvas sync failed: %w", err)
	}

	log.Printf("Canvas sync for user %d completed: events=%d, created=%d, updated=%d, removed=%d",
		j.userID, summary.TotalEvents, summary.Created, summary.Updated, summary.Removed)

	return nil
}

// UserID returns the user ID associated with this job
func (j *CanvasSyncJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job
func (j *CanvasSyncJob) Description() string {
	return fmt.Sprintf("Canvas sync for user %d", j.userID)
}
