package config

// validate checks the merged configuration before startup.
func (cfg *Config) validate() error {
	if cfg.App.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if cfg.App.CSRFSecret == "" {
		return ErrMissingCSRFSecret
	}
	if cfg.App.TokenDuration <= 0 {
		return ErrInvalidTokenTTL
	}

	switch cfg.Storage.Driver {
	case DriverMongo:
	case DriverPostgres:
		if cfg.Storage.Postgres.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return ErrUnknownDriver
	}

	if (cfg.Server.TLSCertFile == "") != (cfg.Server.TLSKeyFile == "") {
		return ErrPartialTLS
	}

	return nil
}

// TLSEnabled reports whether the listener should serve HTTPS itself.
func (s Server) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}
