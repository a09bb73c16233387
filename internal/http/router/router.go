// Package router wires handlers and middleware into the two service variants.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/handlers"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/middleware"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
	mw "github.com/razzbabu4/diagnostic-center-server/pkg/middleware"
)

type Variant int

const (
	// Catalog serves users, tests, banners and credential issuance.
	Catalog Variant = iota
	// Diagnostic adds reservations, payments and reference data.
	Diagnostic
)

type Config struct {
	Service        string
	Verifier       middleware.TokenVerifier
	Roles          middleware.RoleLookup
	Limiter        cache.Limiter
	Idempotency    cache.IdempotencyStore
	AllowedOrigins []string
	HealthChecks   map[string]mw.HealthCheck
	// TrustProxy takes the client address from forwarding headers. Enable
	// only when a proxy in front of the service overwrites them.
	TrustProxy bool
}

func New(v Variant, h *handlers.Handlers, cfg Config) http.Handler {
	if cfg.Limiter == nil {
		cfg.Limiter = cache.NopLimiter{}
	}
	if cfg.Idempotency == nil {
		cfg.Idempotency = cache.NopIdempotencyStore{}
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(cfg.Service))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Total-Count"},
		MaxAge:         300,
	}))
	r.Use(mw.Health(cfg.HealthChecks))

	token := middleware.RequireToken(cfg.Verifier)
	admin := middleware.RequireAdmin(cfg.Roles)
	limit := func(prefix string) func(http.Handler) http.Handler {
		return middleware.NewRateLimiter(cfg.Limiter, middleware.RateLimitConfig{Prefix: prefix}).Middleware()
	}

	r.Get("/", h.Root)
	r.With(limit("jwt")).Post("/jwt", h.IssueToken)

	// users
	r.With(token, admin).Get("/users", h.ListUsers)
	r.With(limit("register")).Post("/users", h.RegisterUser)
	r.With(token).Get("/users/{email}", h.GetUser)
	r.With(token).Patch("/users/{email}", h.UpdateProfile)
	r.With(token).Get("/users/admin/{email}", h.CheckAdmin)
	r.With(token, admin).Patch("/users/admin/{id}", h.PromoteUser)
	r.With(token, admin).Patch("/users/blocked/{id}", h.BlockUser)

	// tests
	r.Get("/tests", h.ListTests)
	r.Get("/tests/{id}", h.GetTest)
	r.With(token, admin).Post("/tests", h.CreateTest)
	r.With(token, admin).Put("/tests/{id}", h.ReplaceTest)
	r.With(token, admin).Delete("/tests/{id}", h.DeleteTest)

	// banners
	r.Get("/banners", h.ListBanners)
	r.Get("/banners/active", h.ActiveBanner)
	r.Get("/banners/{id}", h.GetBanner)
	r.With(token, admin).Post("/banners", h.CreateBanner)
	r.With(token, admin).Patch("/banners/active/{id}", h.ActivateBanner)
	r.With(token, admin).Delete("/banners/{id}", h.DeleteBanner)

	if v == Catalog {
		return r
	}

	r.Get("/totalTestCount", h.TotalTestCount)
	r.Get("/searchTestDate/{testDate}", h.SearchTestDate)

	// reservations
	r.With(token, middleware.Idempotency(cfg.Idempotency)).Post("/reservation", h.CreateReservation)
	r.With(token, admin).Get("/reservation", h.ListReservations)
	r.With(token).Get("/reservation/{email}", h.ListMyReservations)
	r.With(token, admin).Patch("/reservation/{id}", h.UpdateReservation)
	r.With(token).Delete("/reservation/{id}", h.DeleteReservation)

	r.With(token).Post("/create-payment-intent", h.CreatePaymentIntent)

	// reference data
	r.Get("/recommendations", h.Recommendations)
	r.Get("/district", h.Districts)
	r.Get("/upazila/{id}", h.Upazilas)

	return r
}
