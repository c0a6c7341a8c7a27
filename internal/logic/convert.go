package logic

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"smartmoney/internal/types"
	"smartmoney/pkg/market"
	"smartmoney/pkg/market/indicators"
)

var errNoTickers = errors.New("tickers is required")

// splitTickers accepts "SPY,QQQ" or "SPY QQQ".
func splitTickers(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
}

func parseWindow(period, interval string) (market.Period, market.Interval, error) {
	p, err := market.ParsePeriod(period)
	if err != nil {
		return "", "", err
	}
	i, err := market.ParseInterval(interval)
	if err != nil {
		return "", "", err
	}
	return p, i, nil
}

func toRecords(records map[string]market.AssetRecord) ([]types.AssetRecord, int) {
	tickers := make([]string, 0, len(records))
	for t := range records {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	out := make([]types.AssetRecord, 0, len(tickers))
	failed := 0
	for _, t := range tickers {
		r := records[t]
		if !r.Status.IsOK() {
			failed++
		}
		out = append(out, toRecord(r))
	}
	return out, failed
}

func toRecord(r market.AssetRecord) types.AssetRecord {
	bars := make([]types.Bar, 0, len(r.Prices))
	for _, b := range r.Prices {
		bars = append(bars, types.Bar{
			Date:   b.Date.UTC().Format(time.DateOnly),
			Open:   finite(b.Open),
			High:   finite(b.High),
			Low:    finite(b.Low),
			Close:  finite(b.Close),
			Volume: finite(b.Volume),
		})
	}
	meta := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		meta[k] = metaScalar(v)
	}
	out := types.AssetRecord{
		Ticker:    r.Ticker,
		Status:    r.Status.Code.String(),
		Reason:    r.Status.Reason,
		Attempts:  r.Attempts,
		QuoteType: r.Metadata.QuoteType(),
		Bars:      bars,
		Metadata:  meta,
	}
	if !r.FetchedAt.IsZero() {
		out.FetchedAt = r.FetchedAt.UnixMilli()
	}
	if last, ok := r.LastClose(); ok {
		out.LastClose = finite(last)
	}
	if r.Status.IsOK() {
		out.Indicators = toIndicators(indicators.Summarize(r.Prices))
	}
	return out
}

func toIndicators(s indicators.Summary) *types.Indicators {
	return &types.Indicators{
		Change:     finite(s.Change),
		EMA20:      finite(s.EMA),
		RSI14:      finite(s.RSI),
		MACDHist:   finite(s.MACDHist),
		ATR14:      finite(s.ATR),
		Volatility: finite(s.Volatility),
	}
}

func metaScalar(v market.MetaValue) any {
	switch v.Kind {
	case market.MetaNumber:
		if f := finite(v.Number); f != nil {
			return *f
		}
		return nil
	case market.MetaString:
		return v.Text
	case market.MetaBool:
		return v.Flag
	default:
		return nil
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
