package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

// CreateReservation books a slot for the caller. The owner email comes from
// the verified credential, never from the body.
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var in domain.ReservationReq
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.reservations.Reserve(r.Context(), callerEmail(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	out, err := h.reservations.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handlers) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !selfOnly(w, r, email) {
		return
	}
	out, err := h.reservations.ListByEmail(r.Context(), email)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var patch domain.ReservationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.reservations.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.Cancel(r.Context(), chi.URLParam(r, "id"), callerEmail(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
