package views

import (
	"errors"
	"fmt"

	"PerfDash/internal/domain/models"
	xutil "PerfDash/pkg/util"
)

type TraceKind string

const (
	TraceLine TraceKind = "line"
	TraceBar  TraceKind = "bar"
)

// Trace is a renderer-agnostic series descriptor.
type Trace struct {
	Name string    `json:"name"`
	Kind TraceKind `json:"type"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

type Chart struct {
	Title   string  `json:"title"`
	XTitle  string  `json:"x_title"`
	YTitle  string  `json:"y_title"`
	BarMode string  `json:"barmode,omitempty"`
	Traces  []Trace `json:"traces"`
}

// PerformanceChart builds one rebased line trace per instrument.
func PerformanceChart(r *models.AnalyticsResult) (Chart, error) {
	c := Chart{
		Title:  "Stock Performance (Rebased to 100)",
		XTitle: "Date",
		YTitle: "Rebased Price",
		Traces: make([]Trace, 0, r.Len()),
	}
	if r == nil {
		return c, nil
	}
	for _, sym := range r.Order {
		series := r.Instruments[sym].Series
		y, err := Rebase(series)
		if err != nil {
			return Chart{}, withSymbol(err, sym)
		}
		if len(series.Dates) != len(y) {
			return Chart{}, &models.InvalidSeriesError{Symbol: sym, Reason: "dates and prices differ in length"}
		}
		x := make([]string, len(series.Dates))
		for i, d := range series.Dates {
			x[i] = xutil.FormatDate(d)
		}
		c.Traces = append(c.Traces, Trace{Name: string(sym), Kind: TraceLine, X: x, Y: y})
	}
	return c, nil
}

// SharpeChart builds one grouped bar trace per instrument with raw ratios.
func SharpeChart(r *models.AnalyticsResult) (Chart, error) {
	c := Chart{
		Title:   "Sharpe Ratios",
		XTitle:  "Period",
		YTitle:  "Sharpe Ratio",
		BarMode: "group",
		Traces:  make([]Trace, 0, r.Len()),
	}
	if r == nil {
		return c, nil
	}
	labels := models.PeriodLabels()
	for _, sym := range r.Order {
		ratios := r.Instruments[sym].Sharpe
		y := make([]float64, len(labels))
		for i, l := range labels {
			v, ok := ratios[l]
			if !ok {
				return Chart{}, &models.MissingPeriodError{Symbol: sym, Field: "sharpe_ratios", Period: l}
			}
			y[i] = v
		}
		c.Traces = append(c.Traces, Trace{Name: string(sym), Kind: TraceBar, X: labels, Y: y})
	}
	return c, nil
}

// withSymbol attaches the instrument to taxonomy errors raised without one.
func withSymbol(err error, sym models.Symbol) error {
	var mp *models.MissingPeriodError
	if errors.As(err, &mp) && mp.Symbol == "" {
		cp := *mp
		cp.Symbol = sym
		return &cp
	}
	var is *models.InvalidSeriesError
	if errors.As(err, &is) && is.Symbol == "" {
		cp := *is
		cp.Symbol = sym
		return &cp
	}
	return fmt.Errorf("%s: %w", sym, err)
}
