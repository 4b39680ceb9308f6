package identity

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"eventra/internal/auth"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password, so a
	// failed login does not reveal whether the account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store is the persistence needed by the service.
type Store interface {
	Insert(ctx context.Context, u User, passwordHash string) (User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
}

// Service registers and authenticates users.
type Service struct {
	store Store
}

// NewService creates a service backed by a user store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a user with a bcrypt-hashed password. An empty role
// defaults to student; coordinator and admin accounts are seeded or promoted
// out of band.
func (s *Service) Register(ctx context.Context, u User, password string) (User, error) {
	if u.Email == "" || u.Name == "" || password == "" {
		return User{}, errors.New("name, email and password required")
	}
	if u.Role == "" {
		u.Role = auth.RoleStudent
	}
	switch u.Role {
	case auth.RoleStudent, auth.RoleCoordinator, auth.RoleAdmin:
	default:
		return User{}, errors.New("unknown role")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.store.Insert(ctx, u, string(hash))
}

// Login verifies credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.ByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// Resolve returns the user for an id, or nil when absent.
func (s *Service) Resolve(ctx context.Context, id string) (*User, error) {
	return s.store.ByID(ctx, id)
}
