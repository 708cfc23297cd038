package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// UserAdapter translates CLI operations to UserService calls.
type UserAdapter struct {
	service primary.UserService
	out     io.Writer
}

// NewUserAdapter creates a new UserAdapter with the given service.
func NewUserAdapter(service primary.UserService, out io.Writer) *UserAdapter {
	return &UserAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a user.
func (a *UserAdapter) Create(ctx context.Context, data schema.Record) error {
	user, err := a.service.CreateUser(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created %s %s: %s\n", user.Role, user.ID, user.Email)
	return nil
}

// List lists every user.
func (a *UserAdapter) List(ctx context.Context) error {
	users, err := a.service.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-11s %-30s %s\n", "ID", "ROLE", "EMAIL", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────")
	for _, u := range users {
		fmt.Fprintf(a.out, "%-36s %-11s %-30s %s\n", u.ID, u.Role, u.Email, u.FullName())
	}
	fmt.Fprintln(a.out)
	return nil
}

// Show displays a single user.
func (a *UserAdapter) Show(ctx context.Context, userID string) error {
	user, err := a.service.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	fmt.Fprintf(a.out, "\nUser:    %s\n", user.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", user.FullName())
	fmt.Fprintf(a.out, "Email:   %s\n", user.Email)
	fmt.Fprintf(a.out, "Role:    %s\n", user.Role)
	fmt.Fprintf(a.out, "Created: %s\n", user.CreatedAt)
	fmt.Fprintln(a.out)
	return nil
}

// Update merges changes into a user.
func (a *UserAdapter) Update(ctx context.Context, userID string, changes schema.Record) error {
	if len(changes) == 0 {
		return fmt.Errorf("nothing to update")
	}
	if _, err := a.service.UpdateUser(ctx, userID, changes); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ User %s updated\n", userID)
	return nil
}

// Delete deletes a user.
func (a *UserAdapter) Delete(ctx context.Context, userID string) error {
	if err := a.service.DeleteUser(ctx, userID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted user %s\n", userID)
	return nil
}
