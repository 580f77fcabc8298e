package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"PerfDash/internal/services/views"
	"PerfDash/pkg/config"
	xutil "PerfDash/pkg/util"

	chart "github.com/wcharczuk/go-chart/v2"
)

var ErrNoTraces = errors.New("render: chart has no traces")

// Renderer draws assembled charts as PNG images.
type Renderer struct {
	Width  int
	Height int
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{Width: cfg.Render.Width, Height: cfg.Render.Height}
}

// PerformancePNG draws one line per trace against calendar dates.
func (r *Renderer) PerformancePNG(c views.Chart) ([]byte, error) {
	if len(c.Traces) == 0 {
		return nil, ErrNoTraces
	}
	series := make([]chart.Series, 0, len(c.Traces))
	var ys [][]float64
	for i, tr := range c.Traces {
		if len(tr.X) != len(tr.Y) || len(tr.X) == 0 {
			return nil, fmt.Errorf("render: trace %s has %d x and %d y values", tr.Name, len(tr.X), len(tr.Y))
		}
		times := make([]time.Time, len(tr.X))
		for j, x := range tr.X {
			d, ok := xutil.ParseDate(x)
			if !ok {
				return nil, fmt.Errorf("render: trace %s: bad date %q", tr.Name, x)
			}
			times[j] = d
		}
		y := tr.Y
		// go-chart needs at least two x values per series.
		if len(times) == 1 {
			times = append(times, times[0].Add(24*time.Hour))
			y = []float64{y[0], y[0]}
		}
		ys = append(ys, y)
		series = append(series, chart.TimeSeries{
			Name:    tr.Name,
			XValues: times,
			YValues: y,
			Style: chart.Style{
				StrokeWidth: 2,
				StrokeColor: chart.GetDefaultColor(i),
			},
		})
	}

	ch := chart.Chart{
		Title:      c.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 48}},
		XAxis:      chart.XAxis{Name: c.XTitle, ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      chart.YAxis{Name: c.YTitle, Range: valueRange(false, ys...)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render performance chart: %w", err)
	}
	return buf.Bytes(), nil
}

// SharpePNG draws grouped bars: one group per period, one bar per trace.
func (r *Renderer) SharpePNG(c views.Chart) ([]byte, error) {
	if len(c.Traces) == 0 {
		return nil, ErrNoTraces
	}
	groups := len(c.Traces[0].X)
	for _, tr := range c.Traces {
		if len(tr.X) != groups || len(tr.Y) != groups {
			return nil, fmt.Errorf("render: trace %s does not match the period axis", tr.Name)
		}
	}

	bars := make([]chart.Value, 0, groups*(len(c.Traces)+1))
	ys := make([][]float64, 0, len(c.Traces))
	for _, tr := range c.Traces {
		ys = append(ys, tr.Y)
	}
	mid := len(c.Traces) / 2
	for g := 0; g < groups; g++ {
		for i, tr := range c.Traces {
			label := ""
			if i == mid {
				label = tr.X[g]
			}
			col := chart.GetDefaultColor(i)
			bars = append(bars, chart.Value{
				Label: label,
				Value: tr.Y[g],
				Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
			})
		}
		if g < groups-1 && len(c.Traces) > 1 {
			bars = append(bars, chart.Value{Value: 0, Style: chart.Style{FillColor: chart.ColorTransparent, StrokeColor: chart.ColorTransparent}})
		}
	}

	barWidth := r.Width / (len(bars) + 4)
	if barWidth < 4 {
		barWidth = 4
	}
	bc := chart.BarChart{
		Title:        fmt.Sprintf("%s (%s)", c.Title, traceNames(c.Traces)),
		Width:        r.Width,
		Height:       r.Height,
		BarWidth:     barWidth * 3 / 4,
		BarSpacing:   barWidth / 4,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Name: c.YTitle, Range: valueRange(true, ys...)},
		Bars:         bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render sharpe chart: %w", err)
	}
	return buf.Bytes(), nil
}

// valueRange spans every value, optionally including zero, and never
// collapses to a single point.
func valueRange(withZero bool, ys ...[]float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	if withZero {
		lo, hi = 0, 0
	}
	for _, y := range ys {
		for _, v := range y {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func traceNames(traces []views.Trace) string {
	var b bytes.Buffer
	for i, tr := range traces {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tr.Name)
	}
	return b.String()
}
