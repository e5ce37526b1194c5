package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/utils"
	"github.com/ayush/user-service/internal/validators"
)

// Handler holds the /api/user HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	utils.WriteJSON(w, all, http.StatusOK)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "No user found with the ID "+id)
		return
	}
	utils.WriteJSON(w, u, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteJSON(w, models.Detail{Detail: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	utils.WriteJSON(w, u, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.svc.ValidID(id) {
		h.fail(w, r, ErrInvalidID, "")
		return
	}

	var in models.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteJSON(w, models.Detail{Detail: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	u, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	utils.WriteJSON(w, u, http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.svc.Delete(r.Context(), id)
	if err == nil && !deleted {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	utils.WriteJSON(w, models.Detail{Detail: "User deleted successfully"}, http.StatusOK)
}

// fail writes the error response for err. notFound is the detail used for
// store.ErrNotFound.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	code := statusFor(err)

	var detail any
	var verr *validators.ValidationError
	switch {
	case errors.As(err, &verr):
		detail = verr.Fields
	case errors.Is(err, ErrInvalidID):
		detail = "Invalid user ID format"
	case errors.Is(err, store.ErrNotFound):
		detail = notFound
	case errors.Is(err, store.ErrUsernameTaken):
		detail = "Username already registered"
	default:
		logger.FromRequest(r).Err(err).Msg("user request failed")
		detail = "Internal Server Error"
	}

	utils.WriteJSON(w, models.Detail{Detail: detail}, code)
}
