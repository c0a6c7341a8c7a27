package marketpersist

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"smartmoney/pkg/market"
)

func TestNullFloat(t *testing.T) {
	assert.False(t, nullFloat(math.NaN()).Valid)
	assert.False(t, nullFloat(math.Inf(1)).Valid)
	v := nullFloat(12.5)
	assert.True(t, v.Valid)
	assert.Equal(t, 12.5, v.Float64)
}

func TestNewServiceWithoutConn(t *testing.T) {
	assert.Nil(t, NewService(Config{}))
	var s *Service
	assert.NoError(t, s.RecordAssets(context.Background(), "yahoo", market.Period1y, market.IntervalDaily, nil))
}

// Requires SMARTMONEY_PG_DSN pointing at a database with migrations applied.
func TestRecordAssets_Integration(t *testing.T) {
	dsn := os.Getenv("SMARTMONEY_PG_DSN")
	if dsn == "" {
		t.Skip("SMARTMONEY_PG_DSN not set; skipping postgres integration test")
	}
	conn := sqlx.NewSqlConn("pgx", dsn)
	svc := NewService(Config{SQLConn: conn})
	require.NotNil(t, svc)

	now := time.Now().UTC().Truncate(24 * time.Hour)
	ok := market.AssetRecord{
		Ticker: "ZZTEST",
		Prices: []market.Bar{
			{Date: now.AddDate(0, 0, -1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: math.NaN()},
			{Date: now, Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 1000},
		},
		Metadata:  market.Metadata{"quoteType": market.String("etf")},
		Status:    market.OK(),
		Attempts:  1,
		FetchedAt: now,
	}
	failed := market.Placeholder("ZZBAD", market.ReasonEmptyData)

	ctx := context.Background()
	require.NoError(t, svc.RecordAssets(ctx, "itest", market.Period1y, market.IntervalDaily, []market.AssetRecord{ok, failed}))

	var quoteType string
	require.NoError(t, conn.QueryRowCtx(ctx, &quoteType,
		`SELECT quote_type FROM public.asset_snapshots WHERE provider=$1 AND ticker=$2 AND period=$3 AND bar_interval=$4`,
		"itest", "ZZTEST", "1y", "1d"))
	assert.Equal(t, "ETF", quoteType)

	var bars int
	require.NoError(t, conn.QueryRowCtx(ctx, &bars,
		`SELECT COUNT(*) FROM public.price_bars WHERE provider=$1 AND ticker=$2`, "itest", "ZZTEST"))
	assert.Equal(t, 2, bars)

	var skipped int
	require.NoError(t, conn.QueryRowCtx(ctx, &skipped,
		`SELECT COUNT(*) FROM public.asset_snapshots WHERE provider=$1 AND ticker=$2`, "itest", "ZZBAD"))
	assert.Zero(t, skipped)

	_, _ = conn.ExecCtx(ctx, `DELETE FROM public.price_bars WHERE provider=$1`, "itest")
	_, _ = conn.ExecCtx(ctx, `DELETE FROM public.asset_snapshots WHERE provider=$1`, "itest")
}
