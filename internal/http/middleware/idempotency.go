package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

// Idempotency replays the first successful response recorded for an
// Idempotency-Key. Keys are scoped to the caller and the route, so two
// users cannot collide on the same key. While one request with a key is in
// flight, others with the same key get 409. Requests without the header
// pass through untouched.
func Idempotency(store cache.IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			owner := "anonymous"
			if c := ClaimsFrom(r.Context()); c != nil {
				owner = strings.ToLower(c.Email)
			}
			scoped := owner + "|" + r.Method + " " + r.URL.Path + "|" + key

			if replay(w, r, store, scoped) {
				return
			}

			claimed, err := store.Claim(r.Context(), scoped)
			if err != nil {
				logger.WarnContext(r.Context(), "Idempotency claim failed", "error", err)
				claimed = true
			}
			if !claimed {
				response.Conflict(w, "a request with this idempotency key is in progress")
				return
			}
			defer func() {
				if err := store.Release(context.WithoutCancel(r.Context()), scoped); err != nil {
					logger.WarnContext(r.Context(), "Idempotency release failed", "error", err)
				}
			}()

			// The previous holder may have finished between lookup and claim.
			if replay(w, r, store, scoped) {
				return
			}

			var buf bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status < 200 || status >= 300 {
				return
			}
			resp := cache.StoredResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			}
			if err := store.Save(context.WithoutCancel(r.Context()), scoped, resp); err != nil {
				logger.WarnContext(r.Context(), "Idempotency save failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store cache.IdempotencyStore, scoped string) bool {
	stored, ok, err := store.Get(r.Context(), scoped)
	if err != nil {
		logger.WarnContext(r.Context(), "Idempotency lookup failed", "error", err)
	}
	if !ok {
		return false
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
	return true
}
