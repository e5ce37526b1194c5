package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/utils"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

var (
	errCSRFMissingHeader = errors.New("missing csrf header")
	errCSRFMissingCookie = errors.New("missing csrf cookie")
	errCSRFInvalidCookie = errors.New("invalid or expired csrf cookie")
	errCSRFMismatch      = errors.New("csrf token mismatch")
)

var csrfDetail = map[error]string{
	errCSRFMissingHeader: "Missing CSRF token header",
	errCSRFMissingCookie: "Missing CSRF cookie",
	errCSRFInvalidCookie: "Invalid or expired CSRF cookie",
	errCSRFMismatch:      "CSRF token mismatch",
}

// CSRF implements double-submit anti-forgery tokens. The cookie holds the
// token inside an HS256 JWT; the client echoes the bare token in a header.
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewCSRF(secret string, maxAge time.Duration) *CSRF {
	return &CSRF{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// IssueHandler serves GET /csrftoken.
func (c *CSRF) IssueHandler(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()
	now := c.now()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        token,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	}).SignedString(c.secret)
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("csrf token signing failed")
		utils.WriteJSON(w, models.Detail{Detail: "Internal Server Error"}, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSON(w, csrfResponse{CSRFToken: token}, http.StatusOK)
}

// Protect rejects requests whose X-CSRF-Token header does not match the
// token inside a valid csrf_token cookie.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := c.validate(r); err != nil {
			logger.FromRequest(r).Debug().Err(err).Msg("csrf check failed")
			utils.WriteJSON(w, models.Detail{Detail: csrfDetail[err]}, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *CSRF) validate(r *http.Request) error {
	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		return errCSRFMissingHeader
	}
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return errCSRFMissingCookie
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || claims.ID == "" {
		return errCSRFInvalidCookie
	}

	if subtle.ConstantTimeCompare([]byte(header), []byte(claims.ID)) != 1 {
		return errCSRFMismatch
	}
	return nil
}
