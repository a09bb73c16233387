package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/auth"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// RoleLookup resolves the stored role of a user. Unknown users yield
// domain.ErrNotFound.
type RoleLookup interface {
	Role(ctx context.Context, email string) (domain.Role, error)
}

// RequireToken rejects requests without a valid bearer credential and stores
// the verified claims in the request context.
func RequireToken(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, _, _ := strings.Cut(header, " ")
			logger.DebugContext(r.Context(), "Verifying credential", "present", header != "", "scheme", scheme)

			raw, err := auth.BearerToken(header)
			if err != nil {
				response.TokenError(w, err)
				return
			}
			claims, err := v.Verify(raw)
			if err != nil {
				logger.DebugContext(r.Context(), "Credential rejected", "reason", tokenReason(err))
				response.TokenError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = logger.WithEmail(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrMissingToken):
		return "missing"
	default:
		return "invalid"
	}
}

func ClaimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(CtxClaims).(*auth.Claims)
	return c
}

// RequireAdmin admits only callers whose stored role is admin. It must run
// after RequireToken.
func RequireAdmin(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				response.Unauthorized(w, "unauthorized access")
				return
			}
			role, err := lookup.Role(r.Context(), claims.Email)
			if errors.Is(err, domain.ErrNotFound) {
				response.Forbidden(w, "forbidden access")
				return
			}
			if err != nil {
				logger.ErrorContext(r.Context(), "Role lookup failed", "error", err)
				response.InternalError(w, "internal server error")
				return
			}
			if role != domain.RoleAdmin {
				response.Forbidden(w, "forbidden access")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
