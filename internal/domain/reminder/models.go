package reminder

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// Reminder is a single item on a user's list. Manual reminders have a nil
// Source and SourceID; reminders imported from an external feed carry the
// source name and the feed's identifier for the entry. The pair
// (user, source, source ID) is unique for sourced reminders.
type Reminder struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"dueAt"`
	Source      *string    `json:"source"`
	SourceID    *string    `json:"sourceId"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new reminder
type CreateParams struct {
	UserID      int64
	Title       string
	Description *string
	DueAt       *time.Time
	Source      *string
	SourceID    *string
	IsCompleted bool
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Title == "" {
		return errors.New("reminder title is required")
	}
	if p.SourceID != nil && p.Source == nil {
		return errors.New("source is required when source ID is set")
	}
	return nil
}

// UpdateParams contains parameters for updating a reminder. Nil fields are
// left unchanged; DueAt and Description may be set to explicit nulls via
// the Clear flags.
type UpdateParams struct {
	Title            *string
	Description      *string
	ClearDescription bool
	DueAt            *time.Time
	ClearDueAt       bool
	IsCompleted      *bool
}

// Empty reports whether the update carries no changes.
func (p UpdateParams) Empty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.DueAt == nil && !p.ClearDueAt && p.IsCompleted == nil
}
