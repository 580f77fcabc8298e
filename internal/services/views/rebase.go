package views

import "PerfDash/internal/domain/models"

// RebaseBase is the value every rebased series starts at.
const RebaseBase = 100.0

// Rebase scales prices so the first point equals 100.
func Rebase(series models.InstrumentSeries) ([]float64, error) {
	if len(series.Prices) == 0 {
		return nil, &models.InvalidSeriesError{Reason: "empty price series"}
	}
	base := series.Prices[0]
	if !(base > 0) {
		return nil, &models.InvalidSeriesError{Reason: "first price must be positive"}
	}
	out := make([]float64, len(series.Prices))
	out[0] = RebaseBase
	for i := 1; i < len(series.Prices); i++ {
		out[i] = series.Prices[i] / base * RebaseBase
	}
	return out, nil
}
