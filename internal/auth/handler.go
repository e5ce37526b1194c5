package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/utils"
)

// Handler holds the login and current-user HTTP handlers.
type Handler struct {
	auth  *Service
	users CredentialLookup
}

func NewHandler(auth *Service, users CredentialLookup) *Handler {
	return &Handler{auth: auth, users: users}
}

// Token exchanges a username and password for a bearer token.
// It accepts a JSON body or an OAuth2 password form.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	req, err := decodeLogin(r)
	if err != nil {
		log.Err(err).Msg("invalid login body")
		utils.WriteJSON(w, models.Detail{Detail: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			utils.WriteJSON(w, models.Detail{Detail: "Incorrect username or password"}, http.StatusBadRequest)
			return
		}
		log.Err(err).Msg("login failed")
		utils.WriteJSON(w, models.Detail{Detail: "Internal Server Error"}, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, token, http.StatusOK)
}

// Me returns the public view of the user named by the bearer token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := SubjectFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, models.Detail{Detail: "Not authenticated"}, http.StatusUnauthorized)
		return
	}

	user, err := h.users.Credentials(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSON(w, models.Detail{Detail: "User not found"}, http.StatusNotFound)
			return
		}
		logger.FromRequest(r).Err(err).Msg("current user lookup failed")
		utils.WriteJSON(w, models.Detail{Detail: "Internal Server Error"}, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, user.Public(), http.StatusOK)
}

func decodeLogin(r *http.Request) (models.LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return models.LoginRequest{}, err
		}
		return models.LoginRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}, nil
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return models.LoginRequest{}, err
	}
	return req, nil
}
