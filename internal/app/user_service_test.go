package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/lms/internal/core/schema"
)

func newTestUserService(t *testing.T) (*UserServiceImpl, *Repository) {
	t.Helper()
	repo := newTestRepository(t, nil)
	return NewUserService(repo), repo
}

// ============================================================================
// CreateUser Tests
// ============================================================================

func TestCreateUser_WritesSatellite(t *testing.T) {
	tests := []struct {
		role       string
		satellite  string
		wantFields []string
	}{
		{role: "formateur", satellite: "lms/instructors/id-1", wantFields: []string{"bio", "expertise", "courses"}},
		{role: "", satellite: "lms/students/id-1", wantFields: []string{"enrollments", "progress"}},
		{role: "admin", satellite: "lms/admins/id-1", wantFields: []string{"permissions"}},
	}

	for _, tt := range tests {
		t.Run(tt.satellite, func(t *testing.T) {
			svc, repo := newTestUserService(t)
			data := schema.Record{"prenom": "Ana", "email": "ana@example.com"}
			if tt.role != "" {
				data["role"] = tt.role
			}
			user := mustCreateUser(t, svc, data)
			if user.ID != "id-1" || user.FirstName != "Ana" {
				t.Errorf("unexpected user: %+v", user)
			}

			sat, ok := readPath(t, repo.Store(), tt.satellite).(map[string]any)
			if !ok {
				t.Fatalf("satellite %s missing", tt.satellite)
			}
			if sat["userId"] != "id-1" {
				t.Errorf("satellite userId = %v", sat["userId"])
			}
			for _, f := range tt.wantFields {
				if _, ok := sat[f]; !ok {
					t.Errorf("satellite lacks %s: %v", f, sat)
				}
			}
		})
	}
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	_, err := svc.CreateUser(context.Background(), schema.Record{"email": "not-an-email"})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// ============================================================================
// UpdateUser / DeleteUser Tests
// ============================================================================

func TestUpdateUser_RoleChangeMovesSatellite(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()
	user := mustCreateUser(t, svc, schema.Record{"email": "ana@example.com", "role": "student"})

	updated, err := svc.UpdateUser(ctx, user.ID, schema.Record{"role": "instructor"})
	if err != nil {
		t.Fatalf("UpdateUser() error: %v", err)
	}
	if updated.Role != schema.RoleInstructor {
		t.Errorf("role = %q", updated.Role)
	}
	if v := readPath(t, repo.Store(), "lms/students/"+user.ID); v != nil {
		t.Errorf("student satellite should be gone, got %v", v)
	}
	if v := readPath(t, repo.Store(), "lms/instructors/"+user.ID); v == nil {
		t.Error("instructor satellite should exist")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, _ := newTestUserService(t)
	_, err := svc.UpdateUser(context.Background(), "ghost", schema.Record{"prenom": "X"})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()
	user := mustCreateUser(t, svc, schema.Record{"email": "ana@example.com"})

	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}
	if got, _ := svc.GetUser(ctx, user.ID); got != nil {
		t.Errorf("user still present: %+v", got)
	}
	if v := readPath(t, repo.Store(), "lms/students/"+user.ID); v != nil {
		t.Errorf("satellite still present: %v", v)
	}
	if err := svc.DeleteUser(ctx, user.ID); err == nil {
		t.Error("expected error deleting a missing user")
	}
}

func TestListUsers(t *testing.T) {
	svc, _ := newTestUserService(t)
	mustCreateUser(t, svc, schema.Record{"email": "a@example.com"})
	mustCreateUser(t, svc, schema.Record{"email": "b@example.com"})

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}
