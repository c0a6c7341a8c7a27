package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"smartmoney/pkg/market"
)

// summaryModules are requested in this order; on key collisions the first
// module wins, which keeps quoteType.quoteType authoritative.
var summaryModules = []string{
	"quoteType",
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"assetProfile",
	"fundProfile",
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *apiError                    `json:"error"`
	} `json:"quoteSummary"`
}

// Metadata fetches the quoteSummary modules for ticker and flattens them into
// scalar metadata.
func (c *Client) Metadata(ctx context.Context, ticker string) (market.Metadata, error) {
	meta, status, err := c.summary(ctx, ticker)
	if status == http.StatusUnauthorized {
		c.invalidateCrumb()
		meta, _, err = c.summary(ctx, ticker)
	}
	return meta, err
}

func (c *Client) summary(ctx context.Context, ticker string) (market.Metadata, int, error) {
	crumb, err := c.crumb(ctx)
	if err != nil {
		return nil, 0, err
	}
	req, err := c.request(ctx)
	if err != nil {
		return nil, 0, err
	}
	resp, err := req.
		SetPathParam("ticker", ticker).
		SetQueryParams(map[string]string{
			"modules": strings.Join(summaryModules, ","),
			"crumb":   crumb,
		}).
		Get("/v10/finance/quoteSummary/{ticker}")
	if err != nil {
		return nil, 0, &market.UpstreamError{Op: "quoteSummary", Ticker: ticker, Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return market.Metadata{}, resp.StatusCode(), nil
	}
	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), &market.UpstreamError{
			Op: "quoteSummary", Ticker: ticker, StatusCode: resp.StatusCode(),
			Err: fmt.Errorf("%s", snippet(resp.Body())),
		}
	}

	var payload summaryResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, resp.StatusCode(), &market.UpstreamError{Op: "quoteSummary", Ticker: ticker, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.QuoteSummary.Error != nil {
		if payload.QuoteSummary.Error.notFound() {
			return market.Metadata{}, resp.StatusCode(), nil
		}
		return nil, resp.StatusCode(), &market.UpstreamError{Op: "quoteSummary", Ticker: ticker, StatusCode: http.StatusBadRequest, Err: payload.QuoteSummary.Error}
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return market.Metadata{}, resp.StatusCode(), nil
	}
	return flatten(payload.QuoteSummary.Result[0]), resp.StatusCode(), nil
}

// flatten merges module objects into one scalar map. Formatted values
// ({"raw": 1.2, "fmt": "1.2"}) keep raw; arrays, nested objects and empty
// placeholders are dropped.
func flatten(modules map[string]json.RawMessage) market.Metadata {
	out := market.Metadata{}
	for _, name := range summaryModules {
		raw, ok := modules[name]
		if !ok {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		for key, value := range fields {
			if _, taken := out[key]; taken {
				continue
			}
			if v, ok := scalar(value); ok {
				out[key] = v
			}
		}
	}
	return out
}

func scalar(value any) (market.MetaValue, bool) {
	switch t := value.(type) {
	case map[string]any:
		raw, ok := t["raw"]
		if !ok {
			return market.MetaValue{}, false
		}
		return market.MetaValueOf(raw)
	case []any:
		return market.MetaValue{}, false
	default:
		return market.MetaValueOf(t)
	}
}
