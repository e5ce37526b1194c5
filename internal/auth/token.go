package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the OAuth2 token_type of every issued access token.
const TokenType = "bearer"

// Tokens issues and validates HS256 bearer tokens signed with a shared secret.
type Tokens struct {
	signKey []byte
	issuer  string
	now     func() time.Time
}

// NewTokens returns a Tokens signing with signKey. An empty issuer leaves the
// "iss" claim out and skips its check.
func NewTokens(signKey, issuer string) *Tokens {
	return &Tokens{
		signKey: []byte(signKey),
		issuer:  issuer,
		now:     time.Now,
	}
}

// Issue signs a token for subject that expires ttl from now.
func (t *Tokens) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrTokenCreation, ErrEmptySubject)
	}

	now := t.now()
	expiresAt := now.Add(ttl)
	claims := &jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrTokenCreation, err)
	}

	return signed, expiresAt, nil
}

// Parse verifies the signature, algorithm, expiry and issuer of tokenString
// and returns its claims.
func (t *Tokens) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.signKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrEmptySubject)
	}

	return claims, nil
}
