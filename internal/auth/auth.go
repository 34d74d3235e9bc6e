// Package auth manages the local user directory and the current-user
// marker. This is workstation-level identity for a single-operator
// tool, not a multi-tenant account system: passwords are bcrypt-hashed
// at rest, but there are no sessions or tokens, only a persisted
// marker naming who is signed in.
package auth

import (
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/itiva/nettriad/internal/model"
	"github.com/itiva/nettriad/internal/storage"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service owns the user list and the signed-in marker.
type Service struct {
	mu      sync.Mutex
	store   *storage.Store
	users   []model.User
	current string // user id, empty when signed out
}

// NewService restores the user directory and the signed-in marker from
// storage. With seedDefaults set and an empty directory, the default
// admin and demo accounts are created. A marker pointing at a user who
// no longer exists is cleared.
func NewService(store *storage.Store, seedDefaults bool) *Service {
	s := &Service{store: store}
	if _, err := store.Get(storage.KeyUsers, &s.users); err != nil {
		slog.Error("loading users", "error", err)
	}

	if len(s.users) == 0 && seedDefaults {
		s.seed()
	}

	var current string
	if _, err := store.Get(storage.KeyCurrentUser, &current); err != nil {
		slog.Error("loading current user", "error", err)
	}
	if current != "" {
		if s.byID(current) != nil {
			s.current = current
		} else {
			slog.Warn("signed-in marker names a deleted user; clearing", "id", current)
			if err := store.Remove(storage.KeyCurrentUser); err != nil {
				slog.Error("clearing current user", "error", err)
			}
		}
	}
	return s
}

func (s *Service) seed() {
	defaults := []struct {
		username, password, first, last, email string
		admin                                  bool
	}{
		{"admin", "admin", "Admin", "User", "admin@example.com", true},
		{"user", "password", "Demo", "User", "user@example.com", false},
	}
	now := time.Now()
	for _, d := range defaults {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("hashing seed password", "username", d.username, "error", err)
			continue
		}
		s.users = append(s.users, model.User{
			ID:           uuid.NewString(),
			Username:     d.username,
			PasswordHash: string(hash),
			FirstName:    d.first,
			LastName:     d.last,
			Email:        d.email,
			IsAdmin:      d.admin,
			CreatedAt:    now,
		})
	}
	s.persistUsers()
	slog.Info("seeded default users", "count", len(s.users))
}

// persistUsers flushes the directory. Called with the mutex held or
// from the constructor.
func (s *Service) persistUsers() {
	if err := s.store.Set(storage.KeyUsers, s.users); err != nil {
		slog.Error("persisting users", "error", err)
	}
}

func (s *Service) persistCurrent() {
	var err error
	if s.current != "" {
		err = s.store.Set(storage.KeyCurrentUser, s.current)
	} else {
		err = s.store.Remove(storage.KeyCurrentUser)
	}
	if err != nil {
		slog.Error("persisting current user", "error", err)
	}
}

func (s *Service) byID(id string) *model.User {
	for i := range s.users {
		if s.users[i].ID == id {
			return &s.users[i]
		}
	}
	return nil
}

// Register creates a new account and signs it in. All field violations
// are collected into one ValidationError; username and email must be
// unique across the directory.
func (s *Service) Register(username, password, firstName, lastName, email string) (*model.User, error) {
	verr := &model.ValidationError{}
	if username == "" {
		verr.Violation("username is required")
	}
	if password == "" {
		verr.Violation("password is required")
	}
	if firstName == "" {
		verr.Violation("first name is required")
	}
	if lastName == "" {
		verr.Violation("last name is required")
	}
	if email == "" {
		verr.Violation("email is required")
	} else if !emailPattern.MatchString(email) {
		verr.Violation("email address is not valid")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return nil, &model.ConflictError{Resource: "username", Name: username}
		}
		if u.Email == email {
			return nil, &model.ConflictError{Resource: "email", Name: email}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		CreatedAt:    time.Now(),
	}
	s.users = append(s.users, u)
	s.current = u.ID
	s.persistUsers()
	s.persistCurrent()

	slog.Info("registered user", "id", u.ID, "username", u.Username)
	cp := u
	return &cp, nil
}

// Login signs in by username or email. A miss and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(login, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		u := &s.users[i]
		if u.Username != login && u.Email != login {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		s.current = u.ID
		s.persistCurrent()
		slog.Info("user signed in", "id", u.ID, "username", u.Username)
		cp := *u
		return &cp, nil
	}
	return nil, model.ErrNotAuthenticated
}

// Logout clears the signed-in marker. Signing out while signed out is
// a no-op.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return
	}
	slog.Info("user signed out", "id", s.current)
	s.current = ""
	s.persistCurrent()
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Service) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID(s.current)
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// UpdateProfile changes the signed-in user's name and email. Empty
// fields keep their current value; a changed email must be valid and
// unique.
func (s *Service) UpdateProfile(firstName, lastName, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(s.current)
	if u == nil {
		return nil, model.ErrNotAuthenticated
	}

	if email != "" && email != u.Email {
		if !emailPattern.MatchString(email) {
			return nil, &model.ValidationError{Violations: []string{"email address is not valid"}}
		}
		for _, other := range s.users {
			if other.ID != u.ID && other.Email == email {
				return nil, &model.ConflictError{Resource: "email", Name: email}
			}
		}
		u.Email = email
	}
	if firstName != "" {
		u.FirstName = firstName
	}
	if lastName != "" {
		u.LastName = lastName
	}
	s.persistUsers()

	cp := *u
	return &cp, nil
}

// ChangePassword replaces the signed-in user's password after checking
// the current one.
func (s *Service) ChangePassword(current, next string) error {
	if next == "" {
		return &model.ValidationError{Violations: []string{"new password is required"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(s.current)
	if u == nil {
		return model.ErrNotAuthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return model.ErrNotAuthenticated
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	s.persistUsers()
	return nil
}

// DeleteUser removes an account from the directory. Deleting the
// signed-in user also signs them out.
func (s *Service) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.ID != id {
			continue
		}
		s.users = append(s.users[:i], s.users[i+1:]...)
		s.persistUsers()
		if s.current == id {
			s.current = ""
			s.persistCurrent()
		}
		slog.Info("deleted user", "id", id, "username", u.Username)
		return nil
	}
	return model.ErrNotFound
}

// Users returns copies of all accounts. Admin-only at the call sites.
func (s *Service) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out
}

// FindByUsername returns a copy of the named account, or nil.
func (s *Service) FindByUsername(username string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Username == username {
			cp := s.users[i]
			return &cp
		}
	}
	return nil
}
