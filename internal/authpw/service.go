// Package authpw provides username/password authentication for workshop
// accounts.
package authpw

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore is the slice of storage the auth service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (store.User, error)
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

type RegisterRequest struct {
	Username    string
	Password    string
	FullName    string
	Email       string
	PhoneNumber string
	Department  department.Department
}

// Register creates an account with a bcrypt password hash. Accounts start
// enabled; admins disable them instead of deleting.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.User, error) {
	if req.Username == "" || req.Password == "" {
		return store.User{}, errors.New("username and password are required")
	}
	if len(req.Password) < 8 {
		return store.User{}, errors.New("password must be at least 8 characters")
	}
	if _, ok := department.Parse(string(req.Department)); !ok {
		return store.User{}, fmt.Errorf("unknown department %q", req.Department)
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return store.User{}, errors.New("username already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.store.CreateUser(ctx, store.User{
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Department:   req.Department,
		Enabled:      true,
	})
}

// Login verifies credentials and returns the account. Disabled accounts
// fail the same way bad passwords do.
func (s *Service) Login(ctx context.Context, username, password string) (store.User, error) {
	if username == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.Enabled {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
