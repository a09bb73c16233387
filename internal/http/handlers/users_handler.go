package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !selfOnly(w, r, email) {
		return
	}
	u, err := h.users.Get(r.Context(), email)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, u)
}

// RegisterUser is idempotent: a known email answers 200 with the no-insert
// sentinel.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterUserReq
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.users.Register(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !selfOnly(w, r, email) {
		return
	}
	var patch domain.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.users.UpdateProfile(r.Context(), email, patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) PromoteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.Promote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) BlockUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.Block(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// CheckAdmin handles GET /users/admin/{email} for the caller's own email.
func (h *Handlers) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !selfOnly(w, r, email) {
		return
	}
	admin, err := h.users.IsAdmin(r.Context(), email)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"admin": admin})
}
