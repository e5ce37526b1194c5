package store

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrUnknownDriver = errors.New("unknown storage driver")
)
