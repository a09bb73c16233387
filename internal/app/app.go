// Package app assembles a service process from configuration: store,
// optional cache and broker, services, handlers and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/razzbabu4/diagnostic-center-server/internal/http/handlers"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/router"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/auth"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/payments"
	"github.com/razzbabu4/diagnostic-center-server/internal/reference"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/internal/service"
	"github.com/razzbabu4/diagnostic-center-server/pkg/config"
	"github.com/razzbabu4/diagnostic-center-server/pkg/database"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
	mw "github.com/razzbabu4/diagnostic-center-server/pkg/middleware"
)

const shutdownTimeout = 30 * time.Second

// RunHTTP starts the given variant and blocks until SIGINT/SIGTERM.
func RunHTTP(name string, v router.Variant) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.MaxPool)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error("Failed to disconnect mongodb", "error", err)
		}
	}()
	db := client.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("Failed to ensure indexes", "error", err)
	}

	checks := map[string]mw.HealthCheck{"mongodb": database.Ping(client)}

	rdb := connectRedis(ctx, cfg.Redis.URL)
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = cache.Ping(rdb)
	}

	bus := ConnectBus(cfg.NATS.URL, name)
	defer bus.Close()
	if nb, ok := bus.(*events.NATSEventBus); ok {
		checks["nats"] = nb.Ping
	}

	usersRepo := mongodb.NewUsersRepo(db, cfg.Mongo.OpTimeout)
	testsRepo := mongodb.NewTestsRepo(db, cfg.Mongo.OpTimeout)
	bannersRepo := mongodb.NewBannersRepo(db, cfg.Mongo.OpTimeout)

	users := service.NewUserService(usersRepo, cache.NewRoleCache(rdb, cfg.Auth.RoleCacheTTL), bus)
	deps := handlers.Deps{
		Issuer:  auth.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL),
		Users:   users,
		Tests:   service.NewTestService(testsRepo),
		Banners: service.NewBannerService(bannersRepo, bus),
	}
	if v == router.Diagnostic {
		ref, err := reference.Load()
		if err != nil {
			return err
		}
		reservationsRepo := mongodb.NewReservationsRepo(db, cfg.Mongo.OpTimeout)
		deps.Reservations = service.NewReservationService(reservationsRepo, testsRepo, users, bus)
		deps.Payments = service.NewPaymentService(payments.NewStripeGateway(cfg.Payment.SecretKey, cfg.Payment.Currency), bus)
		deps.Reference = ref
	}

	h := router.New(v, handlers.New(deps), router.Config{
		Service:        name,
		Verifier:       auth.NewVerifier(cfg.Auth.TokenSecret),
		Roles:          users,
		Limiter:        cache.NewLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Idempotency:    cache.NewIdempotencyStore(rdb, cache.IdempotencyTTL),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HealthChecks:   checks,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return Serve(ctx, name, srv)
}

// Serve runs srv until ctx is done, then drains it within the shutdown
// deadline.
func Serve(ctx context.Context, name string, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting service", "service", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down service", "service", name)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// ConnectBus dials NATS, falling back to a bus that drops events.
func ConnectBus(url, name string) events.EventBus {
	bus, err := events.NewNATSEventBus(url, name)
	if err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err)
		return events.NopBus{}
	}
	return bus
}

func connectRedis(ctx context.Context, url string) *redis.Client {
	rdb, err := cache.Connect(ctx, url)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
		return nil
	}
	return rdb
}
