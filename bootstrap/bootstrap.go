// Package bootstrap wires FlowBridge's adapters into a running HTTP
// server and manages its startup and graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowbridge/flowbridge/adapters/clock"
	flowhttp "github.com/flowbridge/flowbridge/adapters/http"
	"github.com/flowbridge/flowbridge/adapters/idgen"
	"github.com/flowbridge/flowbridge/adapters/logging"
	"github.com/flowbridge/flowbridge/adapters/metrics"
	"github.com/flowbridge/flowbridge/app"
	"github.com/flowbridge/flowbridge/config"
)

// Environment variable names for bootstrap configuration that sit
// outside the config file entirely.
const (
	EnvLogFormat = "FLOWBRIDGE_LOG_FORMAT"
)

// App is the assembled application: the configured HTTP server
// (bound only once Run starts it) plus the logger and metrics it was
// wired with. Shutdown stops the server; nothing else is closed.
type App struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
	Server  *http.Server
}

// New wires a Config into a fully assembled App, ready for Run.
func New(cfg *config.Config) (*App, error) {
	logger := newLogger(cfg.Server.LogLevel)
	m := metrics.New()

	forwarder := flowhttp.NewForwarder(flowhttp.ForwarderConfig{})
	svc := app.NewService(cfg, forwarder, idgen.UUID{}, clock.Real{}, logger)

	webhookHandler := flowhttp.NewWebhookHandler(svc, logger, m)
	healthHandler := flowhttp.NewHealthHandler(cfg)
	configHandler := flowhttp.NewConfigHandler(cfg)

	router := flowhttp.NewRouter(webhookHandler, healthHandler, configHandler, logger, flowhttp.RouterConfig{Metrics: m})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return &App{Logger: logger, Metrics: m, Server: server}, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info(logging.CategoryResponse, "starting http server", logging.Context{
			Extra: map[string]any{"addr": a.Server.Addr},
		})
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info(logging.CategoryResponse, "shutting down", logging.Context{
			Extra: map[string]any{"signal": sig.String()},
		})
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server, allowing in-flight
// requests up to 30 seconds to complete.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error(logging.CategoryResponse, "http server shutdown error", logging.Context{
			Extra: map[string]any{"error": err.Error()},
		})
		return err
	}

	a.Logger.Info(logging.CategoryResponse, "shutdown complete", logging.Context{})
	return nil
}

// newLogger honors FLOWBRIDGE_LOG_FORMAT=console for local
// development, otherwise emits the mandatory JSON shape.
func newLogger(level string) *logging.Logger {
	if os.Getenv(EnvLogFormat) == "console" {
		return logging.NewConsole(os.Stdout, level)
	}
	return logging.New(os.Stdout, level)
}
