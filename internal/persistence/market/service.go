package marketpersist

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "smartmoney/internal/cache"
	"smartmoney/pkg/assetcache"
	"smartmoney/pkg/market"
)

var _ market.Persistence = (*Service)(nil)

// Service mirrors successful fetches into Postgres and keeps the latest close
// per ticker in Redis.
type Service struct {
	sqlConn sqlx.SqlConn
	cache   gocache.Cache
	ttl     assetcache.TTLPolicy
	now     func() time.Time
}

// Config enumerates dependencies required to persist market data.
type Config struct {
	SQLConn sqlx.SqlConn
	Cache   gocache.Cache
	TTL     assetcache.TTLPolicy
}

// NewService wires a market persistence service. Returns nil when dependencies missing.
func NewService(cfg Config) *Service {
	if cfg.SQLConn == nil {
		return nil
	}
	return &Service{
		sqlConn: cfg.SQLConn,
		cache:   cfg.Cache,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

const snapshotStmt = `
INSERT INTO public.asset_snapshots (
    provider, ticker, period, bar_interval, quote_type, rows, last_close, attempts, metadata, fetched_at, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
)
ON CONFLICT (provider, ticker, period, bar_interval) DO UPDATE SET
    quote_type = EXCLUDED.quote_type,
    rows = EXCLUDED.rows,
    last_close = EXCLUDED.last_close,
    attempts = EXCLUDED.attempts,
    metadata = EXCLUDED.metadata,
    fetched_at = EXCLUDED.fetched_at,
    updated_at = NOW();`

const barStmt = `
INSERT INTO public.price_bars (provider, ticker, bar_interval, bar_date, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (provider, ticker, bar_interval, bar_date) DO UPDATE SET
    open = EXCLUDED.open,
    high = EXCLUDED.high,
    low = EXCLUDED.low,
    close = EXCLUDED.close,
    volume = EXCLUDED.volume;`

// RecordAssets persists every Ok record of a batch; failed placeholders are
// skipped so the mirror never holds empty series.
func (s *Service) RecordAssets(ctx context.Context, provider string, period market.Period, interval market.Interval, records []market.AssetRecord) error {
	if s == nil || s.sqlConn == nil || len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if !record.Status.IsOK() || strings.TrimSpace(record.Ticker) == "" {
			continue
		}
		if err := s.recordOne(ctx, provider, period, interval, record); err != nil {
			return err
		}
		if last, ok := record.LastClose(); ok {
			s.cacheLastClose(ctx, provider, record.Ticker, last, record.FetchedAt)
		}
	}
	return nil
}

func (s *Service) recordOne(ctx context.Context, provider string, period market.Period, interval market.Interval, record market.AssetRecord) error {
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return err
	}
	lastClose := sql.NullFloat64{}
	if last, ok := record.LastClose(); ok {
		lastClose = nullFloat(last)
	}
	quoteType := record.Metadata.QuoteType()
	fetchedAt := record.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}

	return s.sqlConn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		if _, err := session.ExecCtx(ctx, snapshotStmt,
			provider,
			record.Ticker,
			string(period),
			string(interval),
			sql.NullString{String: quoteType, Valid: quoteType != ""},
			len(record.Prices),
			lastClose,
			record.Attempts,
			string(meta),
			fetchedAt.UTC(),
		); err != nil {
			return err
		}
		for _, bar := range record.Prices {
			if _, err := session.ExecCtx(ctx, barStmt,
				provider,
				record.Ticker,
				string(interval),
				bar.Date.UTC(),
				nullFloat(bar.Open),
				nullFloat(bar.High),
				nullFloat(bar.Low),
				nullFloat(bar.Close),
				nullFloat(bar.Volume),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) cacheLastClose(ctx context.Context, provider, ticker string, price float64, ts time.Time) {
	if s.cache == nil {
		return
	}
	ttl := cachekeys.PriceLatestTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	key := cachekeys.PriceLatestByProviderKey(provider, ticker)
	payload := map[string]any{
		"close": price,
		"ts":    ts.UTC().UnixMilli(),
	}
	if err := s.cache.SetWithExpireCtx(ctx, key, payload, ttl); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: cache last close key=%s err=%v", key, err)
	}
}

// nullFloat maps NaN and infinities to SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
