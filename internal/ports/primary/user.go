package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// UserService defines the primary port for user accounts and their role satellites.
type UserService interface {
	// ListUsers returns every canonical user.
	ListUsers(ctx context.Context) ([]*schema.User, error)

	// GetUser returns the user, or nil when it does not exist.
	GetUser(ctx context.Context, userID string) (*schema.User, error)

	// CreateUser creates a user and the satellite matching its role.
	CreateUser(ctx context.Context, data schema.Record) (*schema.User, error)

	// UpdateUser merges changes into the user. A role change moves the satellite.
	UpdateUser(ctx context.Context, userID string, changes schema.Record) (*schema.User, error)

	// DeleteUser removes the user and its satellite.
	DeleteUser(ctx context.Context, userID string) error
}
