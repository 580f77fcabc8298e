package service

import (
	"context"

	"PerfDash/internal/domain/models"
)

// SeriesFetcher retrieves price series and per-period metrics for a snapshot.
// Implementations must return a fully validated result or an error classified
// by the models error taxonomy.
type SeriesFetcher interface {
	FetchData(ctx context.Context, snap models.Snapshot) (*models.AnalyticsResult, error)
}

// HeatmapFetcher retrieves the correlation heatmap for a snapshot.
type HeatmapFetcher interface {
	FetchHeatmap(ctx context.Context, snap models.Snapshot) (*models.HeatmapImage, error)
}

// AnalyticsService is the remote analytics service as seen by the dashboard.
type AnalyticsService interface {
	SeriesFetcher
	HeatmapFetcher
}
