package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
	applogger "PerfDash/pkg/logger"
	"PerfDash/pkg/ratelimit"
)

// Idle rate-limit buckets are dropped after this long.
const limiterIdle = 10 * time.Minute

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, srv *xhttp.Server, limiter *ratelimit.Limiter) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, httpServer: srv, limiter: limiter}
}

// Run starts the HTTP server and blocks until ctx is done or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("dashboard started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("analytics", a.cfg.Analytics.BaseURL),
		applogger.String("env", a.cfg.Environment),
	)

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.log.Debug("pruned idle rate-limit buckets", applogger.Int("count", n))
			}
		}
	}
}

// shutdown gracefully stops the HTTP server.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
