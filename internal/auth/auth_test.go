package auth

import (
	"testing"

	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedDefaults(t *testing.T) {
	s := NewService(newTestStore(t), true)

	admin := s.FindByUsername("admin")
	if admin == nil {
		t.Fatal("expected seeded admin account")
	}
	if !admin.IsAdmin {
		t.Error("admin account must have admin rights")
	}
	demo := s.FindByUsername("user")
	if demo == nil {
		t.Fatal("expected seeded demo account")
	}
	if demo.IsAdmin {
		t.Error("demo account must not have admin rights")
	}
	if demo.PasswordHash == "password" {
		t.Error("passwords must be hashed at rest")
	}
}

func TestSeedDisabled(t *testing.T) {
	s := NewService(newTestStore(t), false)
	if len(s.Users()) != 0 {
		t.Error("expected empty directory without seeding")
	}
}

func TestRegisterAndAutoLogin(t *testing.T) {
	s := NewService(newTestStore(t), false)

	u, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" {
		t.Error("expected a generated user id")
	}
	cur := s.CurrentUser()
	if cur == nil || cur.ID != u.ID {
		t.Error("registration must sign the new user in")
	}
	if got := u.FullName(); got != "Alice Ng" {
		t.Errorf("full name = %q, want 'Alice Ng'", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := NewService(newTestStore(t), false)

	_, err := s.Register("", "", "", "", "not-an-email")
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*model.ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// Username, password, first name, last name, and the bad email.
	if len(verr.Violations) != 5 {
		t.Errorf("expected 5 violations, got %d: %v", len(verr.Violations), verr.Violations)
	}
}

func TestRegisterUniqueness(t *testing.T) {
	s := NewService(newTestStore(t), false)

	if _, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register("alice", "x", "A", "B", "other@example.com"); !model.IsConflict(err) {
		t.Errorf("expected username conflict, got %v", err)
	}
	if _, err := s.Register("bob", "x", "A", "B", "alice@example.com"); !model.IsConflict(err) {
		t.Errorf("expected email conflict, got %v", err)
	}
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	s := NewService(newTestStore(t), false)
	if _, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Logout()

	if _, err := s.Login("alice", "secret"); err != nil {
		t.Errorf("login by username: %v", err)
	}
	s.Logout()
	if _, err := s.Login("alice@example.com", "secret"); err != nil {
		t.Errorf("login by email: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	s := NewService(newTestStore(t), false)
	if _, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Logout()

	if _, err := s.Login("alice", "wrong"); err != model.ErrNotAuthenticated {
		t.Errorf("wrong password: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := s.Login("nobody", "secret"); err != model.ErrNotAuthenticated {
		t.Errorf("unknown user: expected ErrNotAuthenticated, got %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("failed login must not sign anyone in")
	}
}

func TestLogout(t *testing.T) {
	s := NewService(newTestStore(t), true)
	if _, err := s.Login("admin", "admin"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s.Logout()
	if s.CurrentUser() != nil {
		t.Error("expected no current user after logout")
	}
	// Logging out while signed out is a no-op.
	s.Logout()
}

func TestCurrentUserSurvivesRestart(t *testing.T) {
	store := newTestStore(t)
	s := NewService(store, true)
	if _, err := s.Login("admin", "admin"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	s2 := NewService(store, false)
	cur := s2.CurrentUser()
	if cur == nil || cur.Username != "admin" {
		t.Errorf("expected restored sign-in, got %+v", cur)
	}
}

func TestUpdateProfile(t *testing.T) {
	s := NewService(newTestStore(t), false)
	if _, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := s.UpdateProfile("Alicia", "", "alicia@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.FirstName != "Alicia" {
		t.Errorf("first name = %q, want 'Alicia'", u.FirstName)
	}
	if u.LastName != "Ng" {
		t.Errorf("empty field must keep its value, got %q", u.LastName)
	}
	if u.Email != "alicia@example.com" {
		t.Errorf("email = %q", u.Email)
	}

	if _, err := s.UpdateProfile("", "", "broken"); !model.IsValidation(err) {
		t.Errorf("expected validation error for bad email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	s := NewService(newTestStore(t), false)
	if _, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.ChangePassword("wrong", "next"); err != model.ErrNotAuthenticated {
		t.Errorf("wrong current password: expected ErrNotAuthenticated, got %v", err)
	}
	if err := s.ChangePassword("secret", "next"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	s.Logout()
	if _, err := s.Login("alice", "next"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s := NewService(newTestStore(t), false)
	u, err := s.Register("alice", "secret", "Alice", "Ng", "alice@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.DeleteUser(u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if s.CurrentUser() != nil {
		t.Error("deleting the signed-in user must sign them out")
	}
	if err := s.DeleteUser(u.ID); err != model.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
