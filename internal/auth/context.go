package auth

import "context"

type ctxKey struct{}

// WithSubject stores the authenticated username in ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKey{}, subject)
}

// SubjectFromContext returns the username put there by WithSubject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(ctxKey{}).(string)
	return subject, ok && subject != ""
}
