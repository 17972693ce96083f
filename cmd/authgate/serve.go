package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/config"
	"github.com/goliatone/go-authgate/events"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openBackend(ctx, cfg.Store, cfg.Store.Driver == config.DriverSQLite)
			if err != nil {
				return err
			}
			defer closeStore()

			tokens, err := auth.NewTokenService([]byte(cfg.SigningKey), cfg.Issuer, logger)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector())
			registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			retrying := auth.NewRetryingStore(store, cfg.Store.Timeout, cfg.Store.Retries).WithLogger(logger)

			gateway := auth.NewGateway(retrying, tokens).
				WithLogger(logger).
				WithMetrics(auth.NewMetrics(registry)).
				WithPublishTimeout(cfg.Events.Timeout)

			if cfg.Events.Enabled {
				nc, err := events.Connect(cfg.Events.URL, "authgate", cfg.Events.Timeout)
				if err != nil {
					return err
				}
				defer func() { _ = nc.Drain() }()
				gateway.WithNotifier(events.NewPublisher(nc, cfg.Events.Subject, logger))
			}
			// pending publications finish before the connection drains
			defer gateway.Wait()

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			auth.NewHTTPController(gateway,
				auth.WithHTTPLogger(logger),
				auth.WithHealthChecker(store.Ping),
			).Register(app)
			app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", "addr", cfg.HTTP.Addr)
				errCh <- app.Listen(cfg.HTTP.Addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
