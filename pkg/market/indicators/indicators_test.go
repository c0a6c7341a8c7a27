package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmoney/pkg/market"
)

var trend = []float64{100, 101, 102, 103, 105, 107, 106, 108, 110, 111, 112, 115, 117, 119, 118, 120, 121, 123, 125, 124, 126, 127, 129, 130, 132, 133, 134, 135, 136, 138, 139, 141, 140, 142, 144, 143, 145, 147, 149, 148, 150, 151, 149, 148, 150, 152, 151, 153, 154, 156, 155, 157, 158, 160, 161, 159, 158, 157, 159, 160}

func barsFrom(closes []float64, spread float64) []market.Bar {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + spread, Low: c - spread, Close: c}
	}
	return bars
}

func TestEMA(t *testing.T) {
	result := EMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.Len(t, result, 6)
	assert.True(t, math.IsNaN(result[0]))
	assert.True(t, math.IsNaN(result[1]))
	assert.InDelta(t, 2.0, result[2], 1e-9)
	assert.InDelta(t, 3.0, result[3], 1e-9)
	assert.InDelta(t, 5.0, result[5], 1e-9)
}

func TestEMASeedsAfterGap(t *testing.T) {
	nan := math.NaN()
	result := EMA([]float64{1, nan, 2, 3, 4, nan, 6}, 3)
	assert.True(t, math.IsNaN(result[3]))
	assert.InDelta(t, 3.0, result[4], 1e-9)
	assert.InDelta(t, 3.0, result[5], 1e-9, "gap repeats previous value")
	assert.InDelta(t, 4.5, result[6], 1e-9)
}

func TestMACD(t *testing.T) {
	macd, signal, hist := MACD(trend)
	require.Len(t, hist, len(trend))
	last := len(trend) - 1
	assert.InDelta(t, 5.582947, macd[last], 1e-6)
	assert.InDelta(t, 6.307087, signal[last], 1e-6)
	assert.InDelta(t, -0.724141, hist[last], 1e-6)
}

func TestRSI(t *testing.T) {
	rsi := RSI(trend, 14)
	require.Len(t, rsi, len(trend))
	assert.True(t, math.IsNaN(rsi[13]))
	assert.False(t, math.IsNaN(rsi[14]))
	assert.InDelta(t, 73.084185, rsi[len(rsi)-1], 1e-6)

	flat := RSI([]float64{5, 5, 5, 5}, 2)
	assert.InDelta(t, 50.0, flat[3], 1e-9)
}

func TestATR(t *testing.T) {
	closes := []float64{100, 101, 102, 104, 103, 105, 107, 106, 108, 110, 112, 111, 113, 115, 114, 116, 118, 117, 119, 121}
	atr := ATR(barsFrom(closes, 1.5), 14)
	require.Len(t, atr, len(closes))
	assert.InDelta(t, 3.326525, atr[len(atr)-1], 1e-6)
}

func TestVolatility(t *testing.T) {
	assert.True(t, math.IsNaN(Volatility([]float64{100, 101})))
	assert.InDelta(t, 0.0, Volatility([]float64{100, 110, 121, 133.1}), 1e-9)
	assert.Greater(t, Volatility(trend), 0.0)
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil)
	assert.True(t, math.IsNaN(empty.Change))
	assert.True(t, math.IsNaN(empty.RSI))

	s := Summarize(barsFrom(trend, 1))
	assert.InDelta(t, 0.6, s.Change, 1e-9)
	assert.InDelta(t, 73.084185, s.RSI, 1e-6)
	assert.InDelta(t, -0.724141, s.MACDHist, 1e-6)
	assert.False(t, math.IsNaN(s.EMA))
	assert.False(t, math.IsNaN(s.ATR))

	short := Summarize(barsFrom([]float64{10, 11, 12}, 1))
	assert.InDelta(t, 0.2, short.Change, 1e-9)
	assert.True(t, math.IsNaN(short.EMA))
}
