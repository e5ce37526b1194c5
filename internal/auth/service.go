package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/store"
)

// CredentialLookup finds the stored record, hash included, for a username.
type CredentialLookup interface {
	Credentials(ctx context.Context, username string) (models.User, error)
}

// Service authenticates users and issues access tokens.
type Service struct {
	users  CredentialLookup
	tokens *Tokens
	ttl    time.Duration
	verify func(plain, hash string) bool
}

func NewService(users CredentialLookup, tokens *Tokens, ttl time.Duration) *Service {
	return &Service{users: users, tokens: tokens, ttl: ttl, verify: VerifyPassword}
}

// Login checks username and password against the stored record and returns
// a bearer token valid for the configured TTL.
func (s *Service) Login(ctx context.Context, username, password string) (models.AccessToken, error) {
	log := logger.FromContext(ctx)

	if username == "" || password == "" {
		return models.AccessToken{}, ErrInvalidCredentials
	}

	user, err := s.users.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.verify(password, dummyHash())
			log.Debug().Str("username", username).Msg("login for unknown user")
			return models.AccessToken{}, ErrInvalidCredentials
		}
		return models.AccessToken{}, fmt.Errorf("credential lookup: %w", err)
	}

	if !s.verify(password, user.HashedPassword) {
		log.Debug().Str("username", username).Msg("wrong password")
		return models.AccessToken{}, ErrInvalidCredentials
	}
	if user.IsDisabled() {
		log.Debug().Str("username", username).Msg("login for disabled user")
		return models.AccessToken{}, ErrInvalidCredentials
	}

	signed, _, err := s.tokens.Issue(user.Username, s.ttl)
	if err != nil {
		return models.AccessToken{}, err
	}

	return models.AccessToken{AccessToken: signed, TokenType: TokenType}, nil
}
