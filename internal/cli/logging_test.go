package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmoney/internal/config"
	"smartmoney/pkg/market"
)

func TestConfigSummaryLines(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))

	cfg := &config.Config{Env: "dev"}
	cfg.Cache.ShortTTL = 15 * time.Minute
	cfg.Cache.LongTTL = 72 * time.Hour
	cfg.Cache.MaxEntries = 8
	cfg.Market.File = "/etc/smartmoney/market.yaml"
	cfg.Watch.Tickers = []string{"SPY", "QQQ"}
	cfg.Watch.Every = time.Hour

	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Environment: dev")
	assert.Contains(t, lines, "Postgres: not configured")
	assert.Contains(t, lines, "Cache: store=memory ttl(short/long)=15m0s / 72h0m0s max_entries=8")
	assert.Contains(t, lines, "Market config: /etc/smartmoney/market.yaml")
	assert.Contains(t, lines[len(lines)-1], "Watch: SPY,QQQ every 1h0m0s")
}

func TestRecordSummaryLines(t *testing.T) {
	records := map[string]market.AssetRecord{
		"SPY": {
			Ticker:   "SPY",
			Prices:   []market.Bar{{Close: 500}, {Close: 501.5}},
			Metadata: market.Metadata{"quoteType": market.String("etf")},
			Status:   market.OK(),
			Attempts: 1,
		},
		"BADTICKER": market.Placeholder("BADTICKER", market.ReasonEmptyData),
	}

	lines := RecordSummaryLines(records)
	require.Len(t, lines, 2)
	assert.Equal(t, "BADTICKER FAILED(empty_data) attempts=0", lines[0])
	assert.Equal(t, "SPY      ok rows=2 last=501.50 attempts=1 type=ETF", lines[1])
	assert.Equal(t, 1, FailedCount(records))
}
