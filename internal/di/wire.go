//go:build wireinject
// +build wireinject

package di

import (
	"PerfDash/pkg/config"
	"PerfDash/pkg/server"

	"github.com/google/wire"
)

var dashboardSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideAnalyticsService,
	ProvideFetchOrchestrator,
	ProvideDashboard,
	ProvideRenderer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		dashboardSet,

		// HTTP surface
		ProvideAnalyzeLimiter,
		ProvideStreamHandler,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeHeadless wires the dashboard for one-shot command line runs.
func InitializeHeadless(cfg *config.Config) (*Headless, error) {
	wire.Build(
		dashboardSet,
		ProvideHeadless,
	)
	return &Headless{}, nil
}
