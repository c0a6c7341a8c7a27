package fetcher

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/pkg/market"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeTerminal
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

type attemptResult struct {
	outcome outcome
	record  market.AssetRecord
	err     error
}

// attempt performs one history request, applies the quality gate and, on
// success, enriches the record with metadata. Requests run detached from ctx
// cancellation so an in-flight call is never cut mid-request; the provider's
// own timeout bounds them.
func (f *Fetcher) attempt(ctx context.Context, ticker string, period market.Period, interval market.Interval) attemptResult {
	reqCtx := context.WithoutCancel(ctx)

	history, err := f.provider.History(reqCtx, ticker, period, interval)
	if err != nil {
		if market.IsRetryable(err) {
			return attemptResult{outcome: outcomeRetryable, err: err}
		}
		return attemptResult{outcome: outcomeTerminal, err: err}
	}
	if err := f.thresholds.Check(history); err != nil {
		return attemptResult{outcome: outcomeRetryable, err: err}
	}

	record := market.AssetRecord{
		Ticker:    ticker,
		Prices:    history.Bars(),
		Metadata:  market.Metadata{},
		Status:    market.OK(),
		FetchedAt: f.now(),
	}

	if ctx.Err() != nil {
		logx.WithContext(ctx).Infof("fetcher: %s cancelled before metadata request, keeping empty metadata", ticker)
		return attemptResult{outcome: outcomeSuccess, record: record}
	}
	meta, err := f.provider.Metadata(reqCtx, ticker)
	if err != nil {
		logx.WithContext(ctx).Errorf("fetcher: %s metadata unavailable: %v", ticker, err)
	} else if meta != nil {
		record.Metadata = meta
	}
	return attemptResult{outcome: outcomeSuccess, record: record}
}
