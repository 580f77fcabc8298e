package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"PerfDash/internal/domain/models"
	"PerfDash/internal/services/views"
	"PerfDash/pkg/config"
	"PerfDash/pkg/logger"
	xutil "PerfDash/pkg/util"
)

const (
	analyzeLabel = "Analyze"
	loadingLabel = "Loading..."

	HeatmapTitle = "Returns Correlation Heatmap"
)

// SelectionView is the selection as shown next to the controls.
type SelectionView struct {
	Instruments []string `json:"instruments"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

type AnalyzeControl struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type HeatmapView struct {
	Title   string `json:"title"`
	DataURI string `json:"data_uri"`
}

type ErrorView struct {
	Kind   models.ErrorKind `json:"kind"`
	Notice string           `json:"notice"`
}

// View is everything the render sink needs for one paint.
type View struct {
	Phase       models.Phase        `json:"phase"`
	CycleID     string              `json:"cycle_id,omitempty"`
	Selection   SelectionView       `json:"selection"`
	Analyze     AnalyzeControl      `json:"analyze"`
	Performance *views.Chart        `json:"performance,omitempty"`
	Sharpe      *views.Chart        `json:"sharpe,omitempty"`
	Metrics     *views.MetricsTable `json:"metrics,omitempty"`
	Heatmap     *HeatmapView        `json:"heatmap,omitempty"`
	Error       *ErrorView          `json:"error,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// derived caches the views built from one published cycle.
type derived struct {
	cycleID     string
	performance views.Chart
	sharpe      views.Chart
	metrics     views.MetricsTable
	err         *models.ErrorInfo
}

// DashboardController owns one selection and one orchestrator and turns the
// published state into views.
type DashboardController struct {
	orch    *FetchOrchestrator
	catalog []config.Instrument
	log     *logger.Logger

	mu        sync.Mutex
	selection *models.Selection
	cache     *derived
}

// NewDashboardController starts with no instruments and the configured default range.
func NewDashboardController(cfg *config.Config, orch *FetchOrchestrator, log *logger.Logger) (*DashboardController, error) {
	if log == nil {
		log = logger.Nop()
	}
	start, ok := xutil.ParseDate(cfg.Dashboard.DefaultStart)
	if !ok {
		return nil, fmt.Errorf("dashboard: invalid default start %q", cfg.Dashboard.DefaultStart)
	}
	end, ok := xutil.ParseDate(cfg.Dashboard.DefaultEnd)
	if !ok {
		return nil, fmt.Errorf("dashboard: invalid default end %q", cfg.Dashboard.DefaultEnd)
	}
	sel, err := models.NewSelection(nil, start, end)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &DashboardController{
		orch:      orch,
		catalog:   append([]config.Instrument(nil), cfg.Dashboard.Instruments...),
		log:       log,
		selection: sel,
	}, nil
}

// Catalog lists the instruments offered for selection.
func (d *DashboardController) Catalog() []config.Instrument {
	return append([]config.Instrument(nil), d.catalog...)
}

// Selection returns a snapshot of the current selection.
func (d *DashboardController) Selection() models.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Snapshot()
}

func (d *DashboardController) SetInstruments(syms []string) models.Snapshot {
	in := make([]models.Symbol, len(syms))
	for i, s := range syms {
		in[i] = models.Symbol(s)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection.SetInstruments(in)
	return d.selection.Snapshot()
}

func (d *DashboardController) SetStartDate(t time.Time) (models.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.selection.SetStartDate(t)
	return d.selection.Snapshot(), err
}

func (d *DashboardController) SetEndDate(t time.Time) (models.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.selection.SetEndDate(t)
	return d.selection.Snapshot(), err
}

// SelectionView returns the current selection in wire form.
func (d *DashboardController) SelectionView() SelectionView {
	return selectionView(d.Selection())
}

// HeatmapPNG returns the heatmap of the published result, if there is one.
// A result whose views could not be derived shows no heatmap either.
func (d *DashboardController) HeatmapPNG() ([]byte, bool) {
	s := d.orch.State()
	if s.Phase != models.PhaseReady || s.Heatmap == nil || len(s.Heatmap.PNG) == 0 {
		return nil, false
	}
	if d.derive(s).err != nil {
		return nil, false
	}
	return s.Heatmap.PNG, true
}

// CanAnalyze reports whether Analyze would start a cycle right now.
func (d *DashboardController) CanAnalyze() bool {
	return !d.Selection().Empty() && !d.orch.State().Loading()
}

// Analyze starts a cycle for the current selection without waiting for it.
func (d *DashboardController) Analyze(ctx context.Context) error {
	_, err := d.orch.Trigger(ctx, d.Selection())
	return err
}

// AnalyzeAndWait runs a cycle for the current selection and returns the
// resulting view.
func (d *DashboardController) AnalyzeAndWait(ctx context.Context) (View, error) {
	if _, err := d.orch.Run(ctx, d.Selection()); err != nil {
		return d.View(), err
	}
	return d.View(), nil
}

// AnalyzeWithin runs a cycle for the current selection and waits at most
// limit for it to settle. settled is false when the limit hit first; the
// returned view is then the Loading view and the cycle keeps running.
func (d *DashboardController) AnalyzeWithin(ctx context.Context, limit time.Duration) (v View, settled bool, err error) {
	done, err := d.orch.Trigger(ctx, d.Selection())
	if err != nil {
		return d.View(), false, err
	}
	if limit <= 0 {
		<-done
		return d.View(), true, nil
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-done:
		return d.View(), true, nil
	case <-timer.C:
		return d.View(), false, nil
	}
}

// Subscribe calls fn with a fresh view after every orchestrator transition.
func (d *DashboardController) Subscribe(fn func(View)) (unsubscribe func()) {
	return d.orch.Subscribe(func(s models.RequestState) {
		fn(d.viewOf(s))
	})
}

// View derives the current view from the published state.
func (d *DashboardController) View() View {
	return d.viewOf(d.orch.State())
}

func (d *DashboardController) viewOf(s models.RequestState) View {
	snap := d.Selection()
	v := View{
		Phase:     s.Phase,
		CycleID:   s.CycleID,
		Selection: selectionView(snap),
		Analyze:   AnalyzeControl{Label: analyzeLabel, Enabled: !snap.Empty()},
		UpdatedAt: s.UpdatedAt,
	}

	switch s.Phase {
	case models.PhaseLoading:
		v.Analyze = AnalyzeControl{Label: loadingLabel, Enabled: false}
	case models.PhaseFailed:
		v.Error = errorView(s.Err)
	case models.PhaseReady:
		dv := d.derive(s)
		if dv.err != nil {
			v.Phase = models.PhaseFailed
			v.Error = errorView(dv.err)
			return v
		}
		perf, sharpe, metrics := dv.performance, dv.sharpe, dv.metrics
		v.Performance, v.Sharpe, v.Metrics = &perf, &sharpe, &metrics
		if s.Heatmap != nil && len(s.Heatmap.PNG) > 0 {
			v.Heatmap = &HeatmapView{Title: HeatmapTitle, DataURI: HeatmapDataURI(s.Heatmap.PNG)}
		}
	}
	return v
}

// derive builds charts and table once per cycle. Any transform failure
// replaces the whole result.
func (d *DashboardController) derive(s models.RequestState) *derived {
	d.mu.Lock()
	if d.cache != nil && d.cache.cycleID == s.CycleID {
		c := d.cache
		d.mu.Unlock()
		return c
	}
	d.mu.Unlock()

	dv := &derived{cycleID: s.CycleID}
	var err error
	if dv.performance, err = views.PerformanceChart(s.Result); err == nil {
		if dv.sharpe, err = views.SharpeChart(s.Result); err == nil {
			dv.metrics, err = views.BuildMetricsTable(s.Result)
		}
	}
	if err != nil {
		dv = &derived{cycleID: s.CycleID, err: models.NewErrorInfo(err)}
		d.log.Error("Published result could not be rendered",
			logger.String("cycle_id", s.CycleID),
			logger.String("kind", string(dv.err.Kind)),
			logger.Error(err),
		)
	}

	d.mu.Lock()
	d.cache = dv
	d.mu.Unlock()
	return dv
}

func selectionView(snap models.Snapshot) SelectionView {
	return SelectionView{Instruments: snap.Tickers(), StartDate: snap.StartISO(), EndDate: snap.EndISO()}
}

func errorView(info *models.ErrorInfo) *ErrorView {
	if info == nil {
		return &ErrorView{Kind: models.KindUnknown, Notice: models.FailureNotice}
	}
	return &ErrorView{Kind: info.Kind, Notice: info.Notice}
}

// HeatmapDataURI embeds PNG bytes for an <img src>.
func HeatmapDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
