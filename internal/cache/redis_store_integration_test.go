package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zeroredis "github.com/zeromicro/go-zero/core/stores/redis"

	"smartmoney/pkg/assetcache"
	"smartmoney/pkg/market"
)

// Runs against a real Redis when SMARTMONEY_REDIS_ADDR is set.
func newIntegrationStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("SMARTMONEY_REDIS_ADDR")
	if addr == "" {
		t.Skip("SMARTMONEY_REDIS_ADDR not set; skipping redis integration test")
	}
	client := NewRedisClient(zeroredis.RedisConf{Host: addr, Type: zeroredis.NodeType})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, time.Hour).WithKeyPrefix("test-" + uuid.NewString())
	t.Cleanup(func() { _ = store.Clear(context.Background()) })
	return store
}

func testEntry(at time.Time, tickers ...string) *assetcache.Entry {
	key := assetcache.NewKey(tickers, market.Period1y, market.IntervalDaily)
	records := make(map[string]market.AssetRecord, len(key.Tickers))
	for _, t := range key.Tickers {
		records[t] = market.Placeholder(t, market.ReasonEmptyData)
	}
	return &assetcache.Entry{Key: key, BatchID: uuid.NewString(), Records: records, InsertedAt: at, TTL: 15 * time.Minute}
}

func TestRedisStoreRoundTripAndEviction(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	spy := testEntry(now, "SPY")
	spy.Records["SPY"] = market.AssetRecord{
		Ticker:   "SPY",
		Prices:   []market.Bar{{Date: now.Truncate(24 * time.Hour), Close: 593.5}},
		Metadata: market.Metadata{"quoteType": market.String("ETF"), "yield": market.Number(0.012)},
		Status:   market.OK(),
		Attempts: 2,
	}
	_, err := store.Save(ctx, spy, 2)
	require.NoError(t, err)

	got, ok, err := store.Load(ctx, spy.Key.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, spy.BatchID, got.BatchID)
	assert.Equal(t, spy.TTL, got.TTL)
	assert.Equal(t, "ETF", got.Records["SPY"].Metadata.QuoteType())
	assert.InDelta(t, 593.5, got.Records["SPY"].Prices[0].Close, 1e-9)

	_, err = store.Save(ctx, testEntry(now.Add(time.Second), "QQQ"), 2)
	require.NoError(t, err)
	evicted, err := store.Save(ctx, testEntry(now.Add(2*time.Second), "IWM"), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	_, ok, err = store.Load(ctx, spy.Key.String())
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry is evicted")

	failed, ok, err := store.Load(ctx, testEntry(now, "QQQ").Key.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, failed.Records["QQQ"].Prices)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	deleted, err := store.Delete(ctx, testEntry(now, "QQQ").Key.String())
	require.NoError(t, err)
	assert.True(t, deleted)
}
