package views

import (
	"math"

	"PerfDash/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatPercent renders v*100 with two decimals and a trailing '%'.
func FormatPercent(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &models.MalformedPayloadError{Reason: "non-finite value"}
	}
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(2) + "%", nil
}

// FormatReturns formats an annualized-return map in canonical period order.
func FormatReturns(m models.ReturnMap) ([]string, error) {
	return formatPeriods(m, "annualized_returns", func(p models.Period) string { return p.Key })
}

// FormatRatios formats a Sharpe-ratio map in canonical period order.
func FormatRatios(m models.RatioMap) ([]string, error) {
	return formatPeriods(m, "sharpe_ratios", func(p models.Period) string { return p.Label })
}

func formatPeriods(m map[string]float64, field string, key func(models.Period) string) ([]string, error) {
	out := make([]string, 0, len(models.Periods))
	for _, p := range models.Periods {
		v, ok := m[key(p)]
		if !ok {
			return nil, &models.MissingPeriodError{Field: field, Period: key(p)}
		}
		s, err := FormatPercent(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// MetricsRow is one instrument's line in the performance metrics table.
type MetricsRow struct {
	Symbol models.Symbol `json:"symbol"`
	Cells  []string      `json:"cells"`
}

type MetricsTable struct {
	Title   string       `json:"title"`
	Columns []string     `json:"columns"`
	Rows    []MetricsRow `json:"rows"`
}

// BuildMetricsTable lays out annualized returns, one row per instrument in display order.
func BuildMetricsTable(r *models.AnalyticsResult) (MetricsTable, error) {
	t := MetricsTable{
		Title:   "Performance Metrics",
		Columns: append([]string{"Stock"}, models.PeriodLabels()...),
		Rows:    make([]MetricsRow, 0, r.Len()),
	}
	if r == nil {
		return t, nil
	}
	for _, sym := range r.Order {
		cells, err := FormatReturns(r.Instruments[sym].AnnualizedReturns)
		if err != nil {
			return MetricsTable{}, withSymbol(err, sym)
		}
		t.Rows = append(t.Rows, MetricsRow{Symbol: sym, Cells: cells})
	}
	return t, nil
}
