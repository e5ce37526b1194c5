package models

// User is a stored user record. HashedPassword never leaves the server.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Disabled       *bool  `json:"disabled"`
	HashedPassword string `json:"-"` // never serialize
}

// Public returns the externally visible view of the record.
func (u User) Public() UserRead {
	return UserRead{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Disabled: u.Disabled,
	}
}

// IsDisabled reports whether the account has been switched off.
func (u User) IsDisabled() bool {
	return u.Disabled != nil && *u.Disabled
}

// UserCreate is the JSON body for POST and PUT /api/user.
type UserCreate struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRead is the public view returned by every user endpoint.
type UserRead struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Disabled *bool  `json:"disabled"`
}

// LoginRequest is the body (JSON or form) for POST /token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccessToken is the response of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Detail is the {"detail": ...} envelope used for errors and confirmations.
type Detail struct {
	Detail any `json:"detail"`
}
