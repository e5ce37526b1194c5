package users

import (
	"errors"
	"net/http"

	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/validators"
)

var statusFromError = map[error]int{
	ErrInvalidID:           http.StatusBadRequest,
	store.ErrNotFound:      http.StatusNotFound,
	store.ErrUsernameTaken: http.StatusConflict,
}

// statusFor maps a service error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var verr *validators.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	for target, code := range statusFromError {
		if errors.Is(err, target) {
			return code
		}
	}
	return http.StatusInternalServerError
}
