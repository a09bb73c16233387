// Package handlers serves one function per (verb, path). Handlers hold no
// state beyond the dependency set they are constructed with.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/middleware"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
	"github.com/razzbabu4/diagnostic-center-server/internal/reference"
	"github.com/razzbabu4/diagnostic-center-server/internal/service"
)

const maxBodyBytes = 1 << 20

type TokenIssuer interface {
	Issue(email string) (string, error)
}

// Deps is the explicit dependency set. A variant leaves the services it
// does not serve nil and never registers their routes.
type Deps struct {
	Issuer       TokenIssuer
	Users        service.UserService
	Tests        service.TestService
	Banners      service.BannerService
	Reservations service.ReservationService
	Payments     service.PaymentService
	Reference    *reference.Data
}

type Handlers struct {
	issuer       TokenIssuer
	users        service.UserService
	tests        service.TestService
	banners      service.BannerService
	reservations service.ReservationService
	payments     service.PaymentService
	reference    *reference.Data
}

func New(d Deps) *Handlers {
	return &Handlers{
		issuer:       d.Issuer,
		users:        d.Users,
		tests:        d.Tests,
		banners:      d.Banners,
		reservations: d.Reservations,
		payments:     d.Payments,
		reference:    d.Reference,
	}
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Diagnostic center server is running")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		}
		return fmt.Errorf("%w: invalid json: %v", domain.ErrValidation, err)
	}
	return nil
}

// callerEmail returns the verified email of the caller. Routes using it sit
// behind RequireToken.
func callerEmail(r *http.Request) string {
	if c := middleware.ClaimsFrom(r.Context()); c != nil {
		return strings.ToLower(strings.TrimSpace(c.Email))
	}
	return ""
}

// selfOnly answers 403 unless the path email belongs to the caller.
func selfOnly(w http.ResponseWriter, r *http.Request, email string) bool {
	if email == "" || !domain.SameEmail(email, callerEmail(r)) {
		response.Forbidden(w, "forbidden access")
		return false
	}
	return true
}
