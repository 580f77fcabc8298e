package views

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"PerfDash/internal/domain/models"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2019, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func fullReturns() models.ReturnMap {
	return models.ReturnMap{"1M": 0.01, "3M": 0.02, "6M": 0.035, "12M": 0.1234, "36M": -0.05, "60M": 0.2}
}

func fullRatios() models.RatioMap {
	return models.RatioMap{"1M": 0.1, "3M": 0.2, "6M": 0.3, "1Y": 0.4, "3Y": 0.5, "5Y": 0.6}
}

func sampleResult() *models.AnalyticsResult {
	return &models.AnalyticsResult{
		Order: []models.Symbol{"MSFT", "AAPL"},
		Instruments: map[models.Symbol]models.InstrumentAnalytics{
			"AAPL": {
				Series:            models.InstrumentSeries{Dates: dates(3), Prices: []float64{50, 55, 45}},
				Sharpe:            fullRatios(),
				AnnualizedReturns: fullReturns(),
			},
			"MSFT": {
				Series:            models.InstrumentSeries{Dates: dates(2), Prices: []float64{200, 300}},
				Sharpe:            fullRatios(),
				AnnualizedReturns: fullReturns(),
			},
		},
	}
}

func TestRebaseExample(t *testing.T) {
	got, err := Rebase(models.InstrumentSeries{Dates: dates(3), Prices: []float64{50, 55, 45}})
	if err != nil {
		t.Fatalf("rebase: %v", err)
	}
	want := []float64{100, 110, 90}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("rebased[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRebaseFirstPointExactlyHundred(t *testing.T) {
	for _, prices := range [][]float64{{0.1}, {3, 7}, {123.456, 1, 2, 3}, {1e-9, 5}} {
		got, err := Rebase(models.InstrumentSeries{Prices: prices})
		if err != nil {
			t.Fatalf("rebase %v: %v", prices, err)
		}
		if got[0] != 100 {
			t.Fatalf("first point = %v for %v", got[0], prices)
		}
		if len(got) != len(prices) {
			t.Fatalf("len = %d, want %d", len(got), len(prices))
		}
	}
}

func TestRebaseRejectsInvalidSeries(t *testing.T) {
	for _, prices := range [][]float64{nil, {0, 1}, {-1, 2}, {math.NaN(), 1}} {
		_, err := Rebase(models.InstrumentSeries{Prices: prices})
		var is *models.InvalidSeriesError
		if !errors.As(err, &is) {
			t.Fatalf("expected InvalidSeriesError for %v, got %v", prices, err)
		}
	}
}

func TestFormatReturnsCanonicalOrder(t *testing.T) {
	got, err := FormatReturns(fullReturns())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := []string{"1.00%", "2.00%", "3.50%", "12.34%", "-5.00%", "20.00%"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFormatRatiosUsesLabels(t *testing.T) {
	got, err := FormatRatios(fullRatios())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := []string{"10.00%", "20.00%", "30.00%", "40.00%", "50.00%", "60.00%"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFormatReturnsMissingPeriod(t *testing.T) {
	m := fullReturns()
	delete(m, "36M")
	_, err := FormatReturns(m)
	var mp *models.MissingPeriodError
	if !errors.As(err, &mp) {
		t.Fatalf("expected MissingPeriodError, got %v", err)
	}
	if mp.Period != "36M" {
		t.Fatalf("period = %q", mp.Period)
	}
}

func TestFormatReturnsRejectsLabelKeyedMap(t *testing.T) {
	// returns are keyed 12M/36M/60M, not 1Y/3Y/5Y
	m := models.ReturnMap{"1M": 0, "3M": 0, "6M": 0, "1Y": 0, "3Y": 0, "5Y": 0}
	if _, err := FormatReturns(m); err == nil {
		t.Fatalf("expected MissingPeriodError")
	}
}

func TestFormatPercentRejectsNaN(t *testing.T) {
	if _, err := FormatPercent(math.NaN()); err == nil {
		t.Fatalf("expected error for NaN")
	}
	if _, err := FormatPercent(math.Inf(1)); err == nil {
		t.Fatalf("expected error for +Inf")
	}
}

func TestMetricsTableDisplayOrder(t *testing.T) {
	tbl, err := BuildMetricsTable(sampleResult())
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	wantCols := []string{"Stock", "1M", "3M", "6M", "1Y", "3Y", "5Y"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0].Symbol != "MSFT" || tbl.Rows[1].Symbol != "AAPL" {
		t.Fatalf("rows = %+v", tbl.Rows)
	}
	if tbl.Rows[0].Cells[3] != "12.34%" {
		t.Fatalf("1Y cell = %q", tbl.Rows[0].Cells[3])
	}
}

func TestMetricsTableMissingPeriodNamesSymbol(t *testing.T) {
	r := sampleResult()
	ia := r.Instruments["AAPL"]
	ia.AnnualizedReturns = models.ReturnMap{"1M": 0.1}
	r.Instruments["AAPL"] = ia

	_, err := BuildMetricsTable(r)
	var mp *models.MissingPeriodError
	if !errors.As(err, &mp) || mp.Symbol != "AAPL" {
		t.Fatalf("expected MissingPeriodError for AAPL, got %v", err)
	}
}

func TestChartsOnEmptyResult(t *testing.T) {
	for _, r := range []*models.AnalyticsResult{nil, {Instruments: map[models.Symbol]models.InstrumentAnalytics{}}} {
		perf, err := PerformanceChart(r)
		if err != nil || len(perf.Traces) != 0 {
			t.Fatalf("performance: traces=%d err=%v", len(perf.Traces), err)
		}
		sharpe, err := SharpeChart(r)
		if err != nil || len(sharpe.Traces) != 0 {
			t.Fatalf("sharpe: traces=%d err=%v", len(sharpe.Traces), err)
		}
		if perf.Traces == nil || sharpe.Traces == nil {
			t.Fatalf("expected empty, non-nil trace lists")
		}
	}
}

func TestPerformanceChartTraces(t *testing.T) {
	c, err := PerformanceChart(sampleResult())
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(c.Traces) != 2 {
		t.Fatalf("traces = %d", len(c.Traces))
	}
	aapl := c.Traces[1]
	if aapl.Name != "AAPL" || aapl.Kind != TraceLine {
		t.Fatalf("unexpected trace %+v", aapl)
	}
	if !reflect.DeepEqual(aapl.X, []string{"2019-01-01", "2019-02-01", "2019-03-01"}) {
		t.Fatalf("x = %v", aapl.X)
	}
	if aapl.Y[0] != 100 || math.Abs(aapl.Y[2]-90) > 1e-9 {
		t.Fatalf("y = %v", aapl.Y)
	}
}

func TestSharpeChartUsesRawValuesGrouped(t *testing.T) {
	c, err := SharpeChart(sampleResult())
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if c.BarMode != "group" {
		t.Fatalf("barmode = %q", c.BarMode)
	}
	tr := c.Traces[0]
	if tr.Kind != TraceBar || tr.Name != "MSFT" {
		t.Fatalf("unexpected trace %+v", tr)
	}
	if !reflect.DeepEqual(tr.X, []string{"1M", "3M", "6M", "1Y", "3Y", "5Y"}) {
		t.Fatalf("x = %v", tr.X)
	}
	if !reflect.DeepEqual(tr.Y, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}) {
		t.Fatalf("y = %v", tr.Y)
	}
}

func TestSharpeChartMissingPeriod(t *testing.T) {
	r := sampleResult()
	ia := r.Instruments["MSFT"]
	ia.Sharpe = models.RatioMap{"1Y": 1}
	r.Instruments["MSFT"] = ia
	if _, err := SharpeChart(r); models.KindOf(err) != models.KindMalformedPayload {
		t.Fatalf("expected malformed payload, got %v", err)
	}
}

func TestMetricsTableMarkdown(t *testing.T) {
	tbl := MetricsTable{
		Title:   "Performance Metrics",
		Columns: []string{"Stock", "1M", "3M", "6M", "1Y", "3Y", "5Y"},
		Rows:    []MetricsRow{{Symbol: "AAPL", Cells: []string{"1.00%", "2.00%", "3.00%", "12.34%", "5.00%", "6.00%"}}},
	}
	want := "## Performance Metrics\n\n" +
		"| Stock | 1M | 3M | 6M | 1Y | 3Y | 5Y |\n" +
		"| --- | ---: | ---: | ---: | ---: | ---: | ---: |\n" +
		"| AAPL | 1.00% | 2.00% | 3.00% | 12.34% | 5.00% | 6.00% |\n"
	if got := tbl.Markdown(); got != want {
		t.Fatalf("markdown =\n%s\nwant\n%s", got, want)
	}
}
