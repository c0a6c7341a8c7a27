package market_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	market "smartmoney/pkg/market"
)

// Ensures env placeholders are expanded and durations parsed.
func TestMarketConfig_EnvExpansionAndDurations(t *testing.T) {
	t.Setenv("SM_BASE_URL", "https://query2.example.test")
	t.Setenv("SM_TIMEOUT", "9s")
	t.Setenv("SM_HTTP_TIMEOUT", "13s")

	path := writeConfig(t, `
default: yf
providers:
  yf:
    type: nop
    base_url: ${SM_BASE_URL}
    timeout: ${SM_TIMEOUT}
    http_timeout: ${SM_HTTP_TIMEOUT}
`)
	cfg, err := market.LoadConfig(path)
	require.NoError(t, err)
	p := cfg.Providers["yf"]
	require.NotNil(t, p)
	require.Equal(t, "https://query2.example.test", p.BaseURL)
	require.Equal(t, "9s", p.Timeout.String())
	require.Equal(t, "13s", p.HTTPTimeout.String())
}
