package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown users, wrong passwords and
	// disabled accounts alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenCreation = errors.New("token creation failed")
	ErrEmptySubject  = errors.New("empty token subject")
)
