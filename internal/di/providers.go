package di

import (
	"fmt"

	"PerfDash/internal/domain/repository"
	domsvc "PerfDash/internal/domain/service"
	"PerfDash/internal/handler/api"
	"PerfDash/internal/services/analytics"
	"PerfDash/internal/services/render"
	"PerfDash/internal/usecase"
	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
	"PerfDash/pkg/logger"
	"PerfDash/pkg/metrics"
	"PerfDash/pkg/ratelimit"
	"PerfDash/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when metrics are off.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideAnalyticsService creates the remote analytics client.
func ProvideAnalyticsService(cfg *config.Config) domsvc.AnalyticsService {
	return analytics.NewService(cfg)
}

// ProvideFetchOrchestrator creates the fetch-cycle state machine.
func ProvideFetchOrchestrator(
	svc domsvc.AnalyticsService,
	l *logger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.FetchOrchestrator {
	return usecase.NewFetchOrchestrator(svc, l, m, cfg.Analytics.Timeout)
}

// ProvideDashboard creates the dashboard controller.
func ProvideDashboard(cfg *config.Config, orch *usecase.FetchOrchestrator, l *logger.Logger) (*usecase.DashboardController, error) {
	return usecase.NewDashboardController(cfg, orch, l)
}

// ProvideRenderer creates the PNG chart renderer.
func ProvideRenderer(cfg *config.Config) *render.Renderer {
	return render.New(cfg)
}

// ProvideAnalyzeLimiter throttles analyze requests per client.
func ProvideAnalyzeLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.AnalyzeLimit.Burst, cfg.Server.AnalyzeLimit.PerSecond)
}

// ProvideStreamHandler creates the WebSocket state stream.
func ProvideStreamHandler(cfg *config.Config, l *logger.Logger, dash *usecase.DashboardController) *api.StreamHandler {
	return api.NewStreamHandler(cfg, l, dash)
}

// ProvideHTTPHandler creates the dashboard HTTP API.
func ProvideHTTPHandler(
	l *logger.Logger,
	dash *usecase.DashboardController,
	r *render.Renderer,
	lim *ratelimit.Limiter,
	stream *api.StreamHandler,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewDashboardEchoHandler(l, dash, r, lim, stream,
		api.WithWaitLimit(api.WaitLimitFor(cfg.Server.WriteTimeout)),
	)
}

// ProvideHTTPServer creates the Echo server from config.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *logger.Logger, srv *xhttp.Server, lim *ratelimit.Limiter) *server.App {
	return server.New(cfg, l, srv, lim)
}

// ProvideHeadless bundles what the analyze command needs.
func ProvideHeadless(l *logger.Logger, dash *usecase.DashboardController, r *render.Renderer) *Headless {
	return &Headless{Logger: l, Dashboard: dash, Renderer: r}
}

// Headless runs dashboard cycles without the HTTP surface.
type Headless struct {
	Logger    *logger.Logger
	Dashboard *usecase.DashboardController
	Renderer  *render.Renderer
}
