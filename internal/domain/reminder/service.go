package reminder

import (
	"context"
	"errors"
	"fmt"
)

// Service contains the business logic for reminder operations
type Service struct {
	repo Repository
}

// NewService creates a new reminder service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListReminders retrieves all reminders for a user
func (s *Service) ListReminders(ctx context.Context, userID int64) ([]*Reminder, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// CreateReminder creates a manual reminder after validation
func (s *Service) CreateReminder(ctx context.Context, params CreateParams) (*Reminder, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.Create(ctx, params)
}

// UpdateReminder applies a partial update to a reminder owned by the user
func (s *Service) UpdateReminder(ctx context.Context, userID, reminderID int64, params UpdateParams) (*Reminder, error) {
	if reminderID <= 0 {
		return nil, fmt.Errorf("%w: valid reminder ID is required", ErrInvalidInput)
	}
	if params.Empty() {
		return nil, fmt.Errorf("%w: no updatable fields provided", ErrInvalidInput)
	}
	if params.Title != nil && *params.Title == "" {
		return nil, fmt.Errorf("%w: reminder title cannot be empty", ErrInvalidInput)
	}
	return s.repo.Update(ctx, userID, reminderID, params)
}

// DeleteReminder removes a reminder owned by the user
func (s *Service) DeleteReminder(ctx context.Context, userID, reminderID int64) error {
	if reminderID <= 0 {
		return fmt.Errorf("%w: valid reminder ID is required", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, userID, reminderID)
}
