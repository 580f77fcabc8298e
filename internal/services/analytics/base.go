package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"PerfDash/internal/domain/models"
	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
)

// HTTPServiceBase centralizes client construction and JSON POST handling
// for the remote analytics service.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config, opts ...xhttp.ClientOption) *HTTPServiceBase {
	timeout := cfg.Analytics.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(cfg.Analytics.BaseURL, "/"),
		client:  xhttp.NewClient(opts...),
	}
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
// Failures are mapped onto the models error taxonomy.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, op, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("analytics http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return classify(op, err)
	}
	return nil
}

func classify(op string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &models.ServiceError{Op: op, Status: se.StatusCode, Body: se.Body}
	}
	var de *xhttp.DecodeError
	if errors.As(err, &de) {
		return &models.MalformedPayloadError{Reason: op + ": response is not valid JSON", Err: de.Err}
	}
	return &models.NetworkError{Op: op, Err: err}
}

// selectionRequest is the body shared by both endpoints.
type selectionRequest struct {
	Tickers   []string `json:"tickers"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
}

func newSelectionRequest(snap models.Snapshot) selectionRequest {
	return selectionRequest{
		Tickers:   snap.Tickers(),
		StartDate: snap.StartISO(),
		EndDate:   snap.EndISO(),
	}
}
