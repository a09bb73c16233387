package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.reference.Recommendations())
}

func (h *Handlers) Districts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.reference.Districts())
}

func (h *Handlers) Upazilas(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.reference.Upazilas(chi.URLParam(r, "id")))
}
