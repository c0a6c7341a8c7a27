package yahoo

import (
	"context"
	"time"

	"smartmoney/pkg/market"
)

const defaultProviderTimeout = 15 * time.Second

// Provider adapts Client to the market.Provider contract and bounds every
// call with a per-request timeout.
type Provider struct {
	client  *Client
	name    string
	timeout time.Duration
}

type providerConfig struct {
	timeout       time.Duration
	clientOptions []Option
}

// ProviderOption customises the Yahoo provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientOptions = append(cfg.clientOptions, options...)
	}
}

// NewProvider constructs a Yahoo market provider.
func NewProvider(name string, opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if name == "" {
		name = "yahoo"
	}
	return &Provider{
		client:  NewClient(cfg.clientOptions...),
		name:    name,
		timeout: cfg.timeout,
	}
}

func init() {
	market.RegisterProvider("yahoo", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{
			WithBaseURL(cfg.BaseURL),
			WithCookieURL(cfg.CookieURL),
			WithUserAgent(cfg.UserAgent),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPTimeout(cfg.HTTPTimeout))
		}
		if cfg.RateLimit > 0 || cfg.Burst > 0 {
			clientOptions = append(clientOptions, WithRateLimit(cfg.RateLimit, cfg.Burst))
		}
		opts = append(opts, WithClientOptions(clientOptions...))
		return NewProvider(name, opts...), nil
	})
}

// Name returns the configured provider name.
func (p *Provider) Name() string { return p.name }

// History implements market.Provider.
func (p *Provider) History(ctx context.Context, ticker string, period market.Period, interval market.Interval) (*market.History, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.History(ctx, ticker, period, interval)
}

// Metadata implements market.Provider.
func (p *Provider) Metadata(ctx context.Context, ticker string) (market.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Metadata(ctx, ticker)
}
