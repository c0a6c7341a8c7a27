package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"smartmoney/pkg/market"
)

const (
	defaultBaseURL     = "https://query1.finance.yahoo.com"
	defaultCookieURL   = "https://fc.yahoo.com"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultHTTPTimeout = 10 * time.Second
	defaultRateLimit   = 2.0
	defaultBurst       = 1

	crumbKey = "crumb"
	crumbTTL = time.Hour
)

// Client wraps access to the Yahoo Finance chart and quoteSummary endpoints.
type Client struct {
	http      *resty.Client
	baseURL   string
	cookieURL string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper

	limitPerSecond float64
	burst          int
	limiter        *rate.Limiter

	crumbs *gocache.Cache
}

// Option configures a new Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithCookieURL overrides the page hit to obtain the session cookie.
func WithCookieURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.cookieURL = url
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPTimeout bounds every HTTP round trip.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport injects a custom RoundTripper (recorders, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithRateLimit caps requests per second; zero disables the limiter.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond >= 0 {
			c.limitPerSecond = perSecond
		}
		if burst > 0 {
			c.burst = burst
		}
	}
}

// NewClient constructs a Yahoo Finance client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        defaultBaseURL,
		cookieURL:      defaultCookieURL,
		userAgent:      defaultUserAgent,
		timeout:        defaultHTTPTimeout,
		limitPerSecond: defaultRateLimit,
		burst:          defaultBurst,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": c.userAgent,
		})
	if c.transport != nil {
		c.http.SetTransport(c.transport)
	}

	limit := rate.Inf
	if c.limitPerSecond > 0 {
		limit = rate.Limit(c.limitPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, c.burst)
	c.crumbs = gocache.New(crumbTTL, 10*time.Minute)
	return c
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx), nil
}

// crumb returns the cached session crumb, performing the cookie handshake
// when none is cached.
func (c *Client) crumb(ctx context.Context) (string, error) {
	if v, ok := c.crumbs.Get(crumbKey); ok {
		return v.(string), nil
	}

	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	// The cookie page answers 404 but still sets the session cookie in the jar.
	if _, err := req.Get(c.cookieURL); err != nil {
		return "", &market.UpstreamError{Op: "cookie", Err: err}
	}

	req, err = c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.SetHeader("Accept", "text/plain").Get("/v1/test/getcrumb")
	if err != nil {
		return "", &market.UpstreamError{Op: "crumb", Err: err}
	}
	if !resp.IsSuccess() {
		return "", &market.UpstreamError{Op: "crumb", StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s", snippet(resp.Body()))}
	}
	crumb := strings.TrimSpace(string(resp.Body()))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", &market.UpstreamError{Op: "crumb", Err: fmt.Errorf("unexpected crumb %q", snippet(resp.Body()))}
	}
	c.crumbs.SetDefault(crumbKey, crumb)
	return crumb, nil
}

func (c *Client) invalidateCrumb() {
	c.crumbs.Delete(crumbKey)
}

func snippet(body []byte) string {
	const max = 200
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > max {
		return s[:max]
	}
	return s
}
