package validators

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ayush/user-service/internal/models"
)

// Field names as they appear in request bodies.
const (
	FieldUsername = "username"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

const (
	nameMinLen     = 3
	nameMaxLen     = 25
	passwordMinLen = 5
	passwordMaxLen = 20

	// bcrypt refuses longer input.
	passwordMaxBytes = 72
)

// Username accepts any non-blank login key.
func Username(v string) (string, *FieldError) {
	if strings.TrimSpace(v) == "" {
		return "", &FieldError{Field: FieldUsername, Message: "Username must not be empty"}
	}
	return v, nil
}

// Name accepts 3 to 25 letters and nothing else.
func Name(v string) (string, *FieldError) {
	if v == "" || strings.IndexFunc(v, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
		return "", &FieldError{Field: FieldName, Message: "Name must contain only alphabetic characters"}
	}
	if n := utf8.RuneCountInString(v); n < nameMinLen || n > nameMaxLen {
		return "", &FieldError{Field: FieldName, Message: "Name must be between 3 and 25 characters"}
	}
	return v, nil
}

// Email accepts a bare local@domain address whose domain contains a dot.
func Email(v string) (string, *FieldError) {
	invalid := &FieldError{Field: FieldEmail, Message: "value is not a valid email address"}

	if strings.ContainsFunc(v, unicode.IsSpace) {
		return "", invalid
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Name != "" || addr.Address != v {
		return "", invalid
	}

	at := strings.LastIndexByte(v, '@')
	if at <= 0 {
		return "", invalid
	}
	domain := v[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", invalid
	}
	return v, nil
}

// Password accepts 5 to 20 characters containing at least one digit and one letter.
// The encoded form must also fit in 72 bytes. Only the first failing rule is reported.
func Password(v string) (string, *FieldError) {
	if n := utf8.RuneCountInString(v); n < passwordMinLen || n > passwordMaxLen {
		return "", &FieldError{Field: FieldPassword, Message: "Password must be between 5 and 20 characters"}
	}
	if len(v) > passwordMaxBytes {
		return "", &FieldError{Field: FieldPassword, Message: "Password must be at most 72 bytes"}
	}
	if !strings.ContainsFunc(v, unicode.IsDigit) {
		return "", &FieldError{Field: FieldPassword, Message: "Password must contain at least one digit"}
	}
	if !strings.ContainsFunc(v, unicode.IsLetter) {
		return "", &FieldError{Field: FieldPassword, Message: "Password must contain at least one letter"}
	}
	return v, nil
}

// UserCreate runs every field validator over in and reports all failures at once.
func UserCreate(in models.UserCreate) (models.UserCreate, error) {
	checks := []struct {
		value string
		check func(string) (string, *FieldError)
	}{
		{in.Username, Username},
		{in.Name, Name},
		{in.Email, Email},
		{in.Password, Password},
	}

	var failed []FieldError
	for _, c := range checks {
		if _, fe := c.check(c.value); fe != nil {
			failed = append(failed, *fe)
		}
	}
	if len(failed) > 0 {
		return models.UserCreate{}, &ValidationError{Fields: failed}
	}

	return in, nil
}
