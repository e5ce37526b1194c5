package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/user-service/internal/auth"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/utils"
)

// RequireBearer validates the Authorization bearer token and injects its
// subject into the request context.
func RequireBearer(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.FromRequest(r).Debug().Err(err).Msg("rejected bearer token")
				unauthorized(w)
				return
			}

			ctx := auth.WithSubject(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	utils.WriteJSON(w, models.Detail{Detail: "Could not validate credentials"}, http.StatusUnauthorized)
}
