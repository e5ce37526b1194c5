// Package server assembles the HTTP router and runs the listener.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ayush/user-service/internal/auth"
	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/middleware"
	"github.com/ayush/user-service/internal/users"
	"github.com/ayush/user-service/internal/utils"
)

const healthTimeout = 2 * time.Second

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Log       *logger.Logger
	Security  config.Security
	RateLimit config.RateLimit

	Users  *users.Service
	Auth   *auth.Service
	Tokens *auth.Tokens
	CSRF   *middleware.CSRF
	Limits *middleware.RateLimits
}

// NewRouter builds the full route table behind the global middleware chain.
func NewRouter(d Deps) (http.Handler, error) {
	userHandler := users.NewHandler(d.Users)
	authHandler := auth.NewHandler(d.Auth, d.Users)

	limits := map[string]string{
		"list_users":   d.RateLimit.Read,
		"current_user": d.RateLimit.Read,
		"get_user":     d.RateLimit.Read,
		"create_user":  d.RateLimit.Write,
		"update_user":  d.RateLimit.Write,
		"delete_user":  d.RateLimit.Write,
	}
	limit := make(map[string]func(http.Handler) http.Handler, len(limits))
	for route, rate := range limits {
		mw, err := d.Limits.Limit(route, rate)
		if err != nil {
			return nil, err
		}
		limit[route] = mw
	}

	r := chi.NewRouter()
	// RemoteAddr keys the rate limiter; rewrite it only behind a trusted proxy.
	if d.Security.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.TraceID(d.Log))
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security(d.Security))
	r.Use(middleware.CORS(d.Security))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"Hello": "World"}, http.StatusOK)
	})
	r.Get("/health", health(d.Users))
	r.Get("/csrftoken", d.CSRF.IssueHandler)
	r.Post("/token", authHandler.Token)

	r.Route("/api/user", func(r chi.Router) {
		r.With(limit["list_users"]).Get("/", userHandler.List)
		r.With(limit["current_user"], middleware.RequireBearer(d.Tokens)).Get("/me", authHandler.Me)
		r.With(limit["get_user"]).Get("/{id}", userHandler.Get)

		r.With(limit["create_user"], d.CSRF.Protect).Post("/", userHandler.Create)
		r.With(limit["update_user"], d.CSRF.Protect).Put("/{id}", userHandler.Update)
		r.With(limit["delete_user"], d.CSRF.Protect).Delete("/{id}", userHandler.Delete)
	})

	return r, nil
}

func health(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			logger.FromRequest(r).Err(err).Msg("health check failed")
			utils.WriteJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}
