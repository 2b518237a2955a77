package reminder

import "context"

// Repository defines the interface for reminder data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// ListByUserID retrieves all reminders for a user, soonest due first
	ListByUserID(ctx context.Context, userID int64) ([]*Reminder, error)

	// Create creates a new reminder
	Create(ctx context.Context, params CreateParams) (*Reminder, error)

	// Update applies a partial update to a reminder scoped to (user, id)
	Update(ctx context.Context, userID, reminderID int64, params UpdateParams) (*Reminder, error)

	// Delete removes a reminder scoped to (user, id)
	Delete(ctx context.Context, userID, reminderID int64) error
}
