package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"PerfDash/internal/domain/models"
	"PerfDash/internal/services/render"
	"PerfDash/internal/services/views"
	"PerfDash/internal/usecase"
	xhttp "PerfDash/pkg/http"
	"PerfDash/pkg/http/middleware"
	xlogger "PerfDash/pkg/logger"
	"PerfDash/pkg/ratelimit"
	xutil "PerfDash/pkg/util"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler exposes the dashboard controller over HTTP.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.DashboardController
	renderer *render.Renderer
	limiter  *ratelimit.Limiter
	stream   *StreamHandler

	// waitLimit bounds {"wait": true} so the answer is written before the
	// server's write timeout. Zero waits for the cycle to settle.
	waitLimit time.Duration
}

// HandlerOption configures a DashboardEchoHandler.
type HandlerOption func(*DashboardEchoHandler)

// WithWaitLimit caps how long a waiting analyze request blocks before it
// answers 202 with the Loading view.
func WithWaitLimit(d time.Duration) HandlerOption {
	return func(h *DashboardEchoHandler) { h.waitLimit = d }
}

func NewDashboardEchoHandler(
	logger *xlogger.Logger,
	dash *usecase.DashboardController,
	renderer *render.Renderer,
	limiter *ratelimit.Limiter,
	stream *StreamHandler,
	opts ...HandlerOption,
) *DashboardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &DashboardEchoHandler{logger: logger, dash: dash, renderer: renderer, limiter: limiter, stream: stream}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WaitLimitFor leaves a margin under the server write timeout for encoding
// and writing the view.
func WaitLimitFor(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	limit := writeTimeout * 9 / 10
	if writeTimeout-limit > time.Second {
		limit = writeTimeout - time.Second
	}
	return limit
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/instruments", h.Instruments)
	g.GET("/selection", h.Selection)
	g.PUT("/selection/instruments", h.SetInstruments)
	g.PUT("/selection/start", h.SetStartDate)
	g.PUT("/selection/end", h.SetEndDate)
	if h.limiter != nil {
		g.POST("/analyze", h.Analyze, middleware.RateLimit(h.limiter))
	} else {
		g.POST("/analyze", h.Analyze)
	}
	g.GET("/state", h.State)
	g.GET("/heatmap.png", h.HeatmapPNG)
	g.GET("/charts/performance.png", h.PerformancePNG)
	g.GET("/charts/sharpe.png", h.SharpePNG)

	if h.stream != nil {
		e.GET("/ws/state", h.stream.Serve)
	}
}

func (h *DashboardEchoHandler) Instruments(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Catalog())
}

func (h *DashboardEchoHandler) Selection(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.SelectionView())
}

func (h *DashboardEchoHandler) SetInstruments(c echo.Context) error {
	req := &models.InstrumentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.dash.SetInstruments(req.Instruments)
	return xhttp.SuccessResponse(c, h.dash.SelectionView())
}

func (h *DashboardEchoHandler) SetStartDate(c echo.Context) error {
	return h.setDate(c, "start_date", h.dash.SetStartDate)
}

func (h *DashboardEchoHandler) SetEndDate(c echo.Context) error {
	return h.setDate(c, "end_date", h.dash.SetEndDate)
}

func (h *DashboardEchoHandler) setDate(c echo.Context, field string, set func(time.Time) (models.Snapshot, error)) error {
	req := &models.DateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d, ok := xutil.ParseDate(req.Date)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_DATETIME",
			Field:   field,
			Message: field + " must be a date in YYYY-MM-DD format",
		}})
	}
	if snap, err := set(d); err != nil {
		if errors.Is(err, models.ErrInvalidDateRange) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_DATE_RANGE", field, err.Error(), http.StatusBadRequest).
				WithParam("start_date", snap.StartISO()).
				WithParam("end_date", snap.EndISO()).
				WithError(err))
		}
		h.logger.Error("set date error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, h.dash.SelectionView())
}

func (h *DashboardEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// The cycle outlives this request.
	ctx := context.WithoutCancel(c.Request().Context())

	if req.Wait {
		view, settled, err := h.dash.AnalyzeWithin(ctx, h.waitLimit)
		if err != nil {
			return h.analyzeError(c, err)
		}
		if !settled {
			h.logger.Info("analyze wait limit reached, answering with loading view",
				xlogger.String("cycle_id", view.CycleID),
				xlogger.Duration("wait_limit", h.waitLimit),
			)
			return xhttp.AcceptedResponse(c, view)
		}
		return xhttp.SuccessResponse(c, view)
	}
	if err := h.dash.Analyze(ctx); err != nil {
		return h.analyzeError(c, err)
	}
	return xhttp.AcceptedResponse(c, h.dash.View())
}

func (h *DashboardEchoHandler) analyzeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNoInstruments):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("select at least one instrument").WithError(err))
	case errors.Is(err, models.ErrCycleInFlight):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("analysis already in progress").WithError(err))
	}
	h.logger.Error("analyze error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

func (h *DashboardEchoHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.View())
}

func (h *DashboardEchoHandler) HeatmapPNG(c echo.Context) error {
	b, ok := h.dash.HeatmapPNG()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no heatmap available"))
	}
	return xhttp.PNGResponse(c, b)
}

func (h *DashboardEchoHandler) PerformancePNG(c echo.Context) error {
	view := h.dash.View()
	if view.Performance == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no published result"))
	}
	return h.png(c, h.renderer.PerformancePNG, *view.Performance)
}

func (h *DashboardEchoHandler) SharpePNG(c echo.Context) error {
	view := h.dash.View()
	if view.Sharpe == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no published result"))
	}
	return h.png(c, h.renderer.SharpePNG, *view.Sharpe)
}

func (h *DashboardEchoHandler) png(c echo.Context, draw func(views.Chart) ([]byte, error), chart views.Chart) error {
	b, err := draw(chart)
	if errors.Is(err, render.ErrNoTraces) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("chart has no instruments"))
	}
	if err != nil {
		h.logger.Error("chart render error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("chart could not be rendered").WithError(err))
	}
	return xhttp.PNGResponse(c, b)
}
