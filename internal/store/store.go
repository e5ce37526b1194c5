package store

import (
	"context"
	"fmt"

	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
)

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Storage, log *logger.Logger) (UserRepository, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.Mongo, log)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.Postgres, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
