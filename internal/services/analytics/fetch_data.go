package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"PerfDash/internal/domain/models"
	domsvc "PerfDash/internal/domain/service"
	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
	xutil "PerfDash/pkg/util"

	"github.com/go-playground/validator/v10"
)

const opFetchData = "fetch-data"

var payloadValidator = validator.New()

// instrumentPayload is one entry of the /api/fetch-data response. Pointers
// let a JSON null be told apart from a zero.
type instrumentPayload struct {
	Prices            []*float64          `json:"prices" validate:"required,min=1,dive,required"`
	Dates             []string            `json:"dates" validate:"required,min=1,dive,required"`
	SharpeRatios      map[string]*float64 `json:"sharpe_ratios" validate:"required"`
	AnnualizedReturns map[string]*float64 `json:"annualized_returns" validate:"required"`
}

type HTTPSeriesFetcher struct {
	base *HTTPServiceBase
	path string
}

func NewHTTPSeriesFetcher(cfg *config.Config, opts ...xhttp.ClientOption) *HTTPSeriesFetcher {
	return &HTTPSeriesFetcher{base: NewHTTPServiceBase(cfg, opts...), path: cfg.Analytics.FetchPath}
}

// FetchData posts the snapshot to the series endpoint and validates the
// response into an AnalyticsResult ordered like the snapshot.
func (f *HTTPSeriesFetcher) FetchData(ctx context.Context, snap models.Snapshot) (*models.AnalyticsResult, error) {
	var raw map[string]*instrumentPayload
	if err := f.base.PostJSON(ctx, opFetchData, f.path, newSelectionRequest(snap), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &models.MalformedPayloadError{Reason: opFetchData + ": response is not an object"}
	}
	return decodeResult(snap, raw)
}

// decodeResult validates the raw payload against the snapshot that requested it.
func decodeResult(snap models.Snapshot, raw map[string]*instrumentPayload) (*models.AnalyticsResult, error) {
	res := &models.AnalyticsResult{
		Order:       make([]models.Symbol, 0, len(snap.Instruments)),
		Instruments: make(map[models.Symbol]models.InstrumentAnalytics, len(snap.Instruments)),
	}
	for _, sym := range snap.Instruments {
		p, ok := raw[string(sym)]
		if !ok || p == nil {
			return nil, &models.MalformedPayloadError{Reason: fmt.Sprintf("no data for requested instrument %s", sym)}
		}
		ia, err := decodeInstrument(sym, p)
		if err != nil {
			return nil, err
		}
		res.Order = append(res.Order, sym)
		res.Instruments[sym] = ia
	}
	return res, nil
}

func decodeInstrument(sym models.Symbol, p *instrumentPayload) (models.InstrumentAnalytics, error) {
	var out models.InstrumentAnalytics

	if err := payloadValidator.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Field() == "Prices" && fe.Tag() == "min" {
				return out, &models.InvalidSeriesError{Symbol: sym, Reason: "empty price series"}
			}
			return out, &models.MalformedPayloadError{Reason: fmt.Sprintf("%s: %s failed %q", sym, fe.Namespace(), fe.Tag())}
		}
		return out, &models.MalformedPayloadError{Reason: string(sym), Err: err}
	}

	if len(p.Dates) != len(p.Prices) {
		return out, &models.InvalidSeriesError{Symbol: sym, Reason: fmt.Sprintf("%d dates for %d prices", len(p.Dates), len(p.Prices))}
	}

	series := models.InstrumentSeries{
		Dates:  make([]time.Time, len(p.Dates)),
		Prices: make([]float64, len(p.Prices)),
	}
	for i, ds := range p.Dates {
		d, err := time.Parse(xutil.ISODate, ds)
		if err != nil {
			return out, &models.MalformedPayloadError{Reason: fmt.Sprintf("%s: bad date %q", sym, ds), Err: err}
		}
		if i > 0 && !d.After(series.Dates[i-1]) {
			return out, &models.InvalidSeriesError{Symbol: sym, Reason: fmt.Sprintf("dates not strictly increasing at %s", ds)}
		}
		series.Dates[i] = d
	}
	for i, v := range p.Prices {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return out, &models.InvalidSeriesError{Symbol: sym, Reason: fmt.Sprintf("non-finite price at index %d", i)}
		}
		series.Prices[i] = *v
	}
	if !(series.Prices[0] > 0) {
		return out, &models.InvalidSeriesError{Symbol: sym, Reason: "first price must be positive"}
	}

	sharpe, err := decodePeriods(sym, "sharpe_ratios", p.SharpeRatios, func(pd models.Period) string { return pd.Label })
	if err != nil {
		return out, err
	}
	returns, err := decodePeriods(sym, "annualized_returns", p.AnnualizedReturns, func(pd models.Period) string { return pd.Key })
	if err != nil {
		return out, err
	}

	out.Series = series
	out.Sharpe = models.RatioMap(sharpe)
	out.AnnualizedReturns = models.ReturnMap(returns)
	return out, nil
}

// decodePeriods keeps exactly the canonical periods. Extra keys the service
// sends (e.g. cumulative 24M) are dropped; a missing or null one is fatal.
func decodePeriods(sym models.Symbol, field string, in map[string]*float64, key func(models.Period) string) (map[string]float64, error) {
	out := make(map[string]float64, len(models.Periods))
	for _, pd := range models.Periods {
		k := key(pd)
		v, ok := in[k]
		if !ok || v == nil {
			return nil, &models.MissingPeriodError{Symbol: sym, Field: field, Period: k}
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, &models.MalformedPayloadError{Reason: fmt.Sprintf("%s: non-finite %s[%s]", sym, field, k)}
		}
		out[k] = *v
	}
	return out, nil
}

var _ domsvc.SeriesFetcher = (*HTTPSeriesFetcher)(nil)
