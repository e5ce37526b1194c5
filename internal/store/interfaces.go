package store

import (
	"context"

	"github.com/ayush/user-service/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/user_repository_mock.go -package=mock

// UserRepository persists user records. Implementations return ErrNotFound
// for missing records and ErrUsernameTaken when a username is already used.
type UserRepository interface {
	// ValidID reports whether id is well formed for this backend.
	ValidID(id string) bool

	Insert(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	// Update replaces the profile fields and hash of the record with the given id.
	// The disabled flag is left as stored.
	Update(ctx context.Context, id string, user models.User) (models.User, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
