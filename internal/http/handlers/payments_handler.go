package handlers

import (
	"net/http"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Price float64 `json:"price"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	intent, err := h.payments.CreateIntent(r.Context(), callerEmail(r), in.Price)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}
