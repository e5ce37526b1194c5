package config

import (
	"flag"
	"fmt"
)

// parseFlags reads the command-line overrides. Unset flags stay at their
// zero value so they do not shadow the environment during the merge.
//
// Flags:
//
//	-a         listen address [host]:[port]
//	-driver    storage driver (mongo|postgres)
//	-mongo-uri MongoDB connection URI
//	-d         PostgreSQL DSN
//	-redis     Redis URL for rate-limit counters
//	-log-level zerolog level
func parseFlags(args []string) (*Config, error) {
	cfg := new(Config)

	fs := flag.NewFlagSet("user-service", flag.ContinueOnError)
	fs.StringVar(&cfg.Server.Address, "a", "", "listen address host:port")
	fs.StringVar(&cfg.Storage.Driver, "driver", "", "storage driver (mongo|postgres)")
	fs.StringVar(&cfg.Storage.Mongo.URI, "mongo-uri", "", "MongoDB connection URI")
	fs.StringVar(&cfg.Storage.Postgres.DSN, "d", "", "PostgreSQL DSN")
	fs.StringVar(&cfg.RateLimit.RedisURL, "redis", "", "Redis URL for rate-limit counters")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "log level")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return cfg, nil
}
