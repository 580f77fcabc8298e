package analytics

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"PerfDash/internal/domain/models"
	domsvc "PerfDash/internal/domain/service"
	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
)

const opHeatmap = "heatmap"

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

type heatmapResponse struct {
	Heatmap string `json:"heatmap"`
}

type HTTPHeatmapFetcher struct {
	base *HTTPServiceBase
	path string
}

func NewHTTPHeatmapFetcher(cfg *config.Config, opts ...xhttp.ClientOption) *HTTPHeatmapFetcher {
	return &HTTPHeatmapFetcher{base: NewHTTPServiceBase(cfg, opts...), path: cfg.Analytics.HeatmapPath}
}

// FetchHeatmap posts the snapshot to the heatmap endpoint and decodes the base64 PNG.
func (f *HTTPHeatmapFetcher) FetchHeatmap(ctx context.Context, snap models.Snapshot) (*models.HeatmapImage, error) {
	var hr heatmapResponse
	if err := f.base.PostJSON(ctx, opHeatmap, f.path, newSelectionRequest(snap), &hr); err != nil {
		return nil, err
	}
	b64 := strings.TrimPrefix(strings.TrimSpace(hr.Heatmap), "data:image/png;base64,")
	if b64 == "" {
		return nil, &models.MalformedPayloadError{Reason: opHeatmap + ": empty heatmap"}
	}
	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &models.MalformedPayloadError{Reason: opHeatmap + ": heatmap is not base64", Err: err}
	}
	if !bytes.HasPrefix(img, pngSignature) {
		return nil, &models.MalformedPayloadError{Reason: opHeatmap + ": heatmap is not a PNG"}
	}
	return &models.HeatmapImage{PNG: img, Snapshot: snap}, nil
}

// Service bundles both endpoints behind domsvc.AnalyticsService.
type Service struct {
	*HTTPSeriesFetcher
	*HTTPHeatmapFetcher
}

func NewService(cfg *config.Config, opts ...xhttp.ClientOption) *Service {
	return &Service{
		HTTPSeriesFetcher:  NewHTTPSeriesFetcher(cfg, opts...),
		HTTPHeatmapFetcher: NewHTTPHeatmapFetcher(cfg, opts...),
	}
}

var (
	_ domsvc.HeatmapFetcher   = (*HTTPHeatmapFetcher)(nil)
	_ domsvc.AnalyticsService = (*Service)(nil)
)
