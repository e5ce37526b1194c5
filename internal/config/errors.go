package config

import "errors"

var (
	ErrMissingSecretKey  = errors.New("APP_SECRET_KEY must be set")
	ErrMissingCSRFSecret = errors.New("APP_CSRF_SECRET must be set")
	ErrInvalidTokenTTL   = errors.New("token duration must be positive")
	ErrUnknownDriver     = errors.New("storage driver must be mongo or postgres")
	ErrMissingDSN        = errors.New("postgres driver requires STORAGE_POSTGRES_DSN")
	ErrPartialTLS        = errors.New("TLS needs both certificate and key files")
)
