package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmoney/pkg/market"
)

const spyChart = `{"chart":{"result":[{"meta":{"symbol":"SPY","currency":"USD"},
"timestamp":[1735776000,1735862400,1736121600],
"indicators":{"quote":[{"open":[586.1,587.5,592.0],"high":[588.0,591.2,594.1],
"low":[584.2,586.9,590.3],"close":[585.0,null,593.5],"volume":[4.1e7,3.8e7,null]}]}}],"error":null}}`

const notFoundChart = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

const spySummary = `{"quoteSummary":{"result":[{
"quoteType":{"quoteType":"ETF","symbol":"SPY","longName":"SPDR S&P 500 ETF Trust"},
"price":{"quoteType":"EQUITY","regularMarketPrice":{"raw":593.5,"fmt":"593.50"},"currency":"USD","marketState":"CLOSED"},
"summaryDetail":{"yield":{"raw":0.0121,"fmt":"1.21%"},"trailingPE":{},"tradeable":false,"maxAge":1},
"fundProfile":{"family":"SPDR State Street Global Advisors","feesExpensesInvestment":{"annualReportExpenseRatio":{"raw":0.0945}}},
"assetProfile":{"companyOfficers":[]}}],"error":null}}`

type mockYahoo struct {
	server        *httptest.Server
	crumbCalls    atomic.Int32
	summaryCalls  atomic.Int32
	unauthorizedN atomic.Int32
}

func newMockYahoo(t *testing.T) (*mockYahoo, *Client) {
	t.Helper()
	m := &mockYahoo{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		n := m.crumbCalls.Add(1)
		_, _ = fmt.Fprintf(w, "crumb-%d", n)
	})
	mux.HandleFunc("/v8/finance/chart/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ticker := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		switch ticker {
		case "SPY":
			if r.URL.Query().Get("range") != "1y" || r.URL.Query().Get("interval") != "1d" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(spyChart))
		case "BUSY":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
		case "NOCLOSE":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1735776000,1735862400],"indicators":{"quote":[{"open":[1,2]}]}}],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(notFoundChart))
		}
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		m.summaryCalls.Add(1)
		if m.unauthorizedN.Load() > 0 {
			m.unauthorizedN.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
			return
		}
		if !strings.HasPrefix(r.URL.Query().Get("crumb"), "crumb-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(spySummary))
	})
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)

	client := NewClient(
		WithBaseURL(m.server.URL),
		WithCookieURL(m.server.URL+"/cookie"),
		WithRateLimit(0, 1),
	)
	return m, client
}

func TestClientHistory(t *testing.T) {
	_, client := newMockYahoo(t)

	h, err := client.History(context.Background(), "SPY", market.Period1y, market.IntervalDaily)
	require.NoError(t, err)
	require.Equal(t, 3, h.Len())
	require.Equal(t, 2, h.ValidCloses())
	assert.InDelta(t, 585.0, h.Close[0], 1e-9)
	assert.True(t, math.IsNaN(h.Close[1]))
	assert.True(t, math.IsNaN(h.Volume[2]))
	assert.Equal(t, int64(1735776000), h.Dates[0].Unix())

	bars := h.Bars()
	require.Len(t, bars, 2)
	assert.InDelta(t, 593.5, bars[1].Close, 1e-9)
}

func TestClientHistoryUnknownTickerIsEmpty(t *testing.T) {
	_, client := newMockYahoo(t)

	h, err := client.History(context.Background(), "BADTICKER", market.Period1y, market.IntervalDaily)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Zero(t, h.Len())
}

func TestClientHistoryMissingCloseColumn(t *testing.T) {
	_, client := newMockYahoo(t)

	h, err := client.History(context.Background(), "NOCLOSE", market.Period1y, market.IntervalDaily)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Nil(t, h.Close)
}

func TestClientHistoryRateLimitedIsRetryable(t *testing.T) {
	_, client := newMockYahoo(t)

	_, err := client.History(context.Background(), "BUSY", market.Period1y, market.IntervalDaily)
	require.Error(t, err)
	var upstream *market.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.True(t, market.IsRetryable(err))
}

func TestClientMetadataFlattens(t *testing.T) {
	m, client := newMockYahoo(t)

	meta, err := client.Metadata(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "ETF", meta.QuoteType())
	price, ok := meta.Float("regularMarketPrice")
	require.True(t, ok)
	assert.InDelta(t, 593.5, price, 1e-9)
	name, _ := meta.String("longName")
	assert.Equal(t, "SPDR S&P 500 ETF Trust", name)
	tradeable, ok := meta["tradeable"].AsBool()
	assert.True(t, ok)
	assert.False(t, tradeable)
	assert.NotContains(t, meta, "trailingPE")
	assert.NotContains(t, meta, "companyOfficers")
	assert.NotContains(t, meta, "feesExpensesInvestment")

	_, err = client.Metadata(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, int32(1), m.crumbCalls.Load(), "crumb should be cached between calls")
}

func TestClientMetadataRefreshesCrumbOnUnauthorized(t *testing.T) {
	m, client := newMockYahoo(t)
	_, err := client.Metadata(context.Background(), "SPY")
	require.NoError(t, err)

	m.unauthorizedN.Store(1)
	meta, err := client.Metadata(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "ETF", meta.QuoteType())
	assert.Equal(t, int32(2), m.crumbCalls.Load())
	assert.Equal(t, int32(3), m.summaryCalls.Load())
}

func TestClientCancelledContext(t *testing.T) {
	_, client := newMockYahoo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.History(ctx, "SPY", market.Period1y, market.IntervalDaily)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, market.IsRetryable(err))
}

func TestProviderRegistered(t *testing.T) {
	cfg, err := market.LoadConfigFromReader(strings.NewReader(`
default: yahoo
providers:
  yahoo:
    type: yahoo
    timeout: 5s
    rate_limit: 1
    burst: 2
`))
	require.NoError(t, err)
	provider, name, err := cfg.BuildDefault("")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", name)
	yp, ok := provider.(*Provider)
	require.True(t, ok)
	assert.Equal(t, "yahoo", yp.Name())
	assert.Equal(t, 5.0, yp.timeout.Seconds())
	assert.Equal(t, 2, yp.client.burst)
}
