package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmoney/pkg/market"
)

func TestWriteBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	w.nowFn = func() time.Time { return time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC) }

	records := map[string]market.AssetRecord{
		"SPY": {
			Ticker:   "SPY",
			Prices:   []market.Bar{{Close: 1}, {Close: 2}},
			Status:   market.OK(),
			Attempts: 2,
		},
		"BAD": market.Placeholder("BAD", "network_error:timeout"),
	}
	rec := NewBatchRecord("1y|1d|BAD,SPY", "b-1", false, records)
	assert.Equal(t, 1, rec.Failed)
	require.Len(t, rec.Tickers, 2)
	assert.Equal(t, "BAD", rec.Tickers[0].Ticker)

	path, err := w.WriteBatch(rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch_20250601_123000_00001.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got BatchRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.Sequence)
	assert.Equal(t, "failed", got.Tickers[0].Status)
	assert.Equal(t, "network_error:timeout", got.Tickers[0].Reason)
	assert.Equal(t, 2.0, got.Tickers[1].LastClose)
	assert.Equal(t, 2, got.Tickers[1].Rows)

	second, err := w.WriteBatch(NewBatchRecord("1y|1d|SPY", "b-1", true, nil))
	require.NoError(t, err)
	assert.Contains(t, second, "_00002.json")

	_, err = w.WriteBatch(nil)
	assert.Error(t, err)
}
