// Package fetcher retrieves one ticker at a time from a market.Provider with a
// bounded retry budget, exponential backoff and inter-ticker pacing. It never
// returns errors: every outcome is encoded in market.AssetRecord.Status.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/pkg/market"
)

const (
	DefaultMaxAttempts  = 3
	DefaultBaseDelay    = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultJitter       = 0.1
	DefaultPacing       = 500 * time.Millisecond
	DefaultReasonMaxLen = 80
)

// Fetcher issues history and metadata requests against a single provider.
type Fetcher struct {
	provider     market.Provider
	thresholds   market.Thresholds
	maxAttempts  int
	baseDelay    time.Duration
	maxDelay     time.Duration
	jitter       float64
	pacing       time.Duration
	reasonMaxLen int

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithThresholds sets the quality gate applied to every history response.
func WithThresholds(t market.Thresholds) Option {
	return func(f *Fetcher) { f.thresholds = t.Normalised() }
}

// WithMaxAttempts sets the default attempt budget per ticker.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay, the cap on any single delay and the
// randomisation factor in [0, 1]. The wait before attempt n is base*2^(n-1).
func WithBackoff(base, max time.Duration, jitter float64) Option {
	return func(f *Fetcher) {
		if base > 0 {
			f.baseDelay = base
		}
		if max > 0 {
			f.maxDelay = max
		}
		if jitter >= 0 && jitter <= 1 {
			f.jitter = jitter
		}
	}
}

// WithPacing sets the fixed delay between tickers of one batch.
func WithPacing(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.pacing = d
		}
	}
}

// WithReasonMaxLen bounds the error text kept in network_error reasons.
func WithReasonMaxLen(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.reasonMaxLen = n
		}
	}
}

// WithSleep replaces the interruptible sleep used for backoff and pacing.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// WithClock replaces the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// New constructs a Fetcher for provider.
func New(provider market.Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:     provider,
		thresholds:   market.DefaultThresholds(),
		maxAttempts:  DefaultMaxAttempts,
		baseDelay:    DefaultBaseDelay,
		maxDelay:     DefaultMaxDelay,
		jitter:       DefaultJitter,
		pacing:       DefaultPacing,
		reasonMaxLen: DefaultReasonMaxLen,
		sleep:        sleepContext,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Thresholds returns the quality gate in use.
func (f *Fetcher) Thresholds() market.Thresholds { return f.thresholds }

// Fetch retrieves one ticker. maxAttempts <= 0 uses the configured budget.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, period market.Period, interval market.Interval, maxAttempts int) market.AssetRecord {
	if maxAttempts <= 0 {
		maxAttempts = f.maxAttempts
	}
	logger := logx.WithContext(ctx)
	schedule := f.newSchedule()

	var last attemptResult
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := schedule.NextBackOff()
			if err := f.sleep(ctx, wait); err != nil {
				last = attemptResult{outcome: outcomeTerminal, err: err}
				break
			}
		}
		if err := ctx.Err(); err != nil {
			last = attemptResult{outcome: outcomeTerminal, err: err}
			break
		}

		attempts = attempt
		last = f.attempt(ctx, ticker, period, interval)
		switch last.outcome {
		case outcomeSuccess:
			logger.Infof("fetcher: %s ok attempt=%d/%d rows=%d", ticker, attempt, maxAttempts, len(last.record.Prices))
			last.record.Attempts = attempts
			return last.record
		case outcomeRetryable:
			logger.Infof("fetcher: %s attempt=%d/%d %s: %v", ticker, attempt, maxAttempts, last.outcome, last.err)
			continue
		}
		logger.Errorf("fetcher: %s attempt=%d/%d %s: %v", ticker, attempt, maxAttempts, last.outcome, last.err)
		break
	}

	record := market.Placeholder(ticker, f.reason(last.err))
	record.Attempts = attempts
	record.FetchedAt = f.now()
	logger.Errorf("fetcher: %s failed after %d attempt(s): %s", ticker, attempts, record.Status)
	return record
}

// FetchBatch fetches tickers in the given order, sleeping the pacing delay
// between tickers regardless of outcome. Once ctx is done the remaining
// tickers receive failed placeholders so every ticker is present.
func (f *Fetcher) FetchBatch(ctx context.Context, tickers []string, period market.Period, interval market.Interval) []market.AssetRecord {
	records := make([]market.AssetRecord, 0, len(tickers))
	for i, ticker := range tickers {
		if i > 0 && f.pacing > 0 {
			if err := f.sleep(ctx, f.pacing); err != nil {
				return f.fillCancelled(records, tickers[i:], err)
			}
		}
		if err := ctx.Err(); err != nil {
			return f.fillCancelled(records, tickers[i:], err)
		}
		records = append(records, f.Fetch(ctx, ticker, period, interval, 0))
	}
	return records
}

func (f *Fetcher) fillCancelled(records []market.AssetRecord, remaining []string, cause error) []market.AssetRecord {
	reason := f.reason(cause)
	now := f.now()
	for _, ticker := range remaining {
		record := market.Placeholder(ticker, reason)
		record.FetchedAt = now
		records = append(records, record)
	}
	return records
}

// reason maps the last attempt's error onto a failure reason string.
func (f *Fetcher) reason(err error) string {
	var dq *market.DataQualityError
	if errors.As(err, &dq) {
		return dq.Reason
	}
	return market.NetworkErrorReason(err, f.reasonMaxLen)
}

// newSchedule yields base*2^(n-1) before attempt n, starting at n = 2.
func (f *Fetcher) newSchedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * f.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = f.jitter
	b.MaxInterval = f.maxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
