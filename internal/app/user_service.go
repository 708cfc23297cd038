package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	repo  *Repository
	users *Collection
}

// NewUserService creates a new UserService with injected dependencies.
func NewUserService(repo *Repository) *UserServiceImpl {
	return &UserServiceImpl{
		repo:  repo,
		users: repo.Collection(schema.KindUser),
	}
}

// ListUsers retrieves all users.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*schema.User, error) {
	records, err := s.users.FetchAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return decodeAll[schema.User](records)
}

// GetUser retrieves a user by ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (*schema.User, error) {
	rec, err := s.users.FetchByID(ctx, "", userID)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[schema.User](rec)
}

// CreateUser creates a user and its role satellite.
func (s *UserServiceImpl) CreateUser(ctx context.Context, data schema.Record) (*schema.User, error) {
	id, err := s.users.Create(ctx, "", data)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created user: %w", err)
	}
	if err := s.repo.ensureSatellite(ctx, user.Role, id); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser merges changes into a user and moves the satellite on a role change.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID string, changes schema.Record) (*schema.User, error) {
	before, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, &NotFoundError{Kind: schema.KindUser, Path: s.users.Path(userID)}
	}

	if _, err := s.users.Update(ctx, "", userID, changes); err != nil {
		return nil, err
	}
	after, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated user: %w", err)
	}

	if after.Role != before.Role {
		if err := s.repo.dropSatellite(ctx, before.Role, userID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.ensureSatellite(ctx, after.Role, userID); err != nil {
		return nil, err
	}
	return after, nil
}

// DeleteUser removes a user and its satellite.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return &NotFoundError{Kind: schema.KindUser, Path: s.users.Path(userID)}
	}
	if _, err := s.users.Delete(ctx, "", userID); err != nil {
		return err
	}
	return s.repo.dropSatellite(ctx, user.Role, userID)
}

// Ensure UserServiceImpl implements the interface
var _ primary.UserService = (*UserServiceImpl)(nil)
