package handlers

import (
	"net/http"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

// IssueToken handles POST /jwt. Issuance is unconditional: the client has
// already authenticated the email with its identity provider.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	tok, err := h.issuer.Issue(in.Email)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"token": tok})
}
