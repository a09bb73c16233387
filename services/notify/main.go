package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/app"
	"github.com/razzbabu4/diagnostic-center-server/internal/notify"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/mailer"
	"github.com/razzbabu4/diagnostic-center-server/pkg/config"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
	mw "github.com/razzbabu4/diagnostic-center-server/pkg/middleware"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := app.ConnectBus(cfg.NATS.URL, "notify")
	defer bus.Close()

	n := notify.New(mailer.New(mailer.Config{
		APIKey:   cfg.Mail.MailerSendKey,
		FromName: cfg.Mail.FromName,
		From:     cfg.Mail.From,
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		User:     cfg.Mail.User,
		Pass:     cfg.Mail.Pass,
		UseTLS:   cfg.Mail.UseTLS,
	}))
	if err := n.Subscribe(bus); err != nil {
		logger.Error("Failed to subscribe to reservation events", "error", err)
		os.Exit(1)
	}

	checks := map[string]mw.HealthCheck{}
	if nb, ok := bus.(*events.NATSEventBus); ok {
		checks["nats"] = nb.Ping
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Recover)
	r.Use(mw.Health(checks))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Notify service is running"))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if err := app.Serve(ctx, "notify", srv); err != nil {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}
