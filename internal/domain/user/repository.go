package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail looks up a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*User, error)
}
