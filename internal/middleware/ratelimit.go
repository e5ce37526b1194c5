package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/utils"
)

const rateLimitPrefix = "ratelimit"

type rateLimitResponse struct {
	Error string `json:"error"`
}

// RateLimits builds fixed-window limiters keyed by client address. Counters
// live in Redis when a client is given, in process memory otherwise.
type RateLimits struct {
	rdb *redis.Client
}

func NewRateLimits(rdb *redis.Client) *RateLimits {
	return &RateLimits{rdb: rdb}
}

// Limit returns a middleware allowing formatted (e.g. "10-M") requests per
// window for the named route. Each route gets its own counters.
func (rl *RateLimits) Limit(route, formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q for %s: %w", formatted, route, err)
	}

	st, err := rl.store(rateLimitPrefix + ":" + route)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Rate limit exceeded: %d per %s", rate.Limit, describePeriod(rate.Period))
	mw := stdlib.NewMiddleware(limiter.New(st, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.FromRequest(r).Warn().Str("route", route).Msg("rate limit exceeded")
			utils.WriteJSON(w, rateLimitResponse{Error: message}, http.StatusTooManyRequests)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.FromRequest(r).Err(err).Str("route", route).Msg("rate limiter store failed")
			utils.WriteJSON(w, models.Detail{Detail: "Internal Server Error"}, http.StatusInternalServerError)
		}),
	)
	return mw.Handler, nil
}

func (rl *RateLimits) store(prefix string) (limiter.Store, error) {
	if rl.rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	st, err := sredis.NewStoreWithOptions(rl.rdb, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: limiter.DefaultMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit redis store: %w", err)
	}
	return st, nil
}

func describePeriod(p time.Duration) string {
	switch p {
	case time.Second:
		return "1 second"
	case time.Minute:
		return "1 minute"
	case time.Hour:
		return "1 hour"
	case 24 * time.Hour:
		return "1 day"
	}
	return p.String()
}
