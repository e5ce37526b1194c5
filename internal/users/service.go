// Package users implements the user CRUD operations and their HTTP handlers.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayush/user-service/internal/auth"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/validators"
)

// ErrInvalidID is returned for ids the active store cannot represent.
var ErrInvalidID = errors.New("invalid user id format")

// Service is the data-access layer over a UserRepository.
type Service struct {
	repo store.UserRepository
}

func NewService(repo store.UserRepository) *Service {
	return &Service{repo: repo}
}

// ValidID reports whether id is well formed for the active store.
func (s *Service) ValidID(id string) bool {
	return s.repo.ValidID(id)
}

func (s *Service) Get(ctx context.Context, id string) (models.UserRead, error) {
	if !s.repo.ValidID(id) {
		return models.UserRead{}, ErrInvalidID
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.UserRead{}, err
	}
	return u.Public(), nil
}

// List returns every user in store order. The slice is never nil.
func (s *Service) List(ctx context.Context) ([]models.UserRead, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserRead, 0, len(all))
	for _, u := range all {
		out = append(out, u.Public())
	}
	return out, nil
}

// Create validates in, hashes the password and stores the record.
func (s *Service) Create(ctx context.Context, in models.UserCreate) (models.UserRead, error) {
	user, err := toStored(in)
	if err != nil {
		return models.UserRead{}, err
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return models.UserRead{}, err
	}
	logger.FromContext(ctx).Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user created")
	return created.Public(), nil
}

// Update replaces the record with id by in, re-hashing the password.
func (s *Service) Update(ctx context.Context, id string, in models.UserCreate) (models.UserRead, error) {
	if !s.repo.ValidID(id) {
		return models.UserRead{}, ErrInvalidID
	}
	user, err := toStored(in)
	if err != nil {
		return models.UserRead{}, err
	}

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		return models.UserRead{}, err
	}
	logger.FromContext(ctx).Info().Str("user_id", id).Msg("user updated")
	return updated.Public(), nil
}

// Delete reports whether exactly one record was removed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if !s.repo.ValidID(id) {
		return false, ErrInvalidID
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.FromContext(ctx).Info().Str("user_id", id).Msg("user deleted")
	}
	return deleted, nil
}

// Credentials returns the stored record, hash included, for username.
func (s *Service) Credentials(ctx context.Context, username string) (models.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func toStored(in models.UserCreate) (models.User, error) {
	valid, err := validators.UserCreate(in)
	if err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(valid.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return models.User{
		Username:       valid.Username,
		Name:           valid.Name,
		Email:          valid.Email,
		HashedPassword: hash,
	}, nil
}
