package models

import "time"

// Period is one entry of the closed trailing-period set. Key is how the
// analytics service names it in annualized_returns, Label is how it is shown
// (and how sharpe_ratios is keyed).
type Period struct {
	Key   string
	Label string
}

// Periods is the canonical display order.
var Periods = []Period{
	{Key: "1M", Label: "1M"},
	{Key: "3M", Label: "3M"},
	{Key: "6M", Label: "6M"},
	{Key: "12M", Label: "1Y"},
	{Key: "36M", Label: "3Y"},
	{Key: "60M", Label: "5Y"},
}

// PeriodLabels returns the display labels in canonical order.
func PeriodLabels() []string {
	out := make([]string, len(Periods))
	for i, p := range Periods {
		out[i] = p.Label
	}
	return out
}

// RatioMap holds Sharpe ratios keyed by period label (1M, 3M, 6M, 1Y, 3Y, 5Y).
type RatioMap map[string]float64

// ReturnMap holds annualized returns keyed by period key (1M, 3M, 6M, 12M, 36M, 60M).
type ReturnMap map[string]float64

// InstrumentSeries is a price history. Dates strictly increase and
// len(Dates) == len(Prices) >= 1 once it has passed boundary validation.
type InstrumentSeries struct {
	Dates  []time.Time
	Prices []float64
}

type InstrumentAnalytics struct {
	Series            InstrumentSeries
	Sharpe            RatioMap
	AnnualizedReturns ReturnMap
}

// AnalyticsResult is the merged output of one successful fetch cycle.
// It is immutable once published.
type AnalyticsResult struct {
	Order       []Symbol
	Instruments map[Symbol]InstrumentAnalytics
}

func (r *AnalyticsResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Order)
}

// HeatmapImage is an opaque encoded PNG tied to the snapshot that produced it.
type HeatmapImage struct {
	PNG      []byte
	Snapshot Snapshot
}
