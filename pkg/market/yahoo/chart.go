package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"smartmoney/pkg/market"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *apiError) notFound() bool {
	return e != nil && strings.EqualFold(e.Code, "Not Found")
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// History fetches the OHLCV table for ticker. Unknown tickers yield an empty
// table.
func (c *Client) History(ctx context.Context, ticker string, period market.Period, interval market.Interval) (*market.History, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetPathParam("ticker", ticker).
		SetQueryParams(map[string]string{
			"range":    string(period),
			"interval": string(interval),
			"events":   "div,splits",
		}).
		Get("/v8/finance/chart/{ticker}")
	if err != nil {
		return nil, &market.UpstreamError{Op: "chart", Ticker: ticker, Err: err}
	}

	var payload chartResponse
	decodeErr := json.Unmarshal(resp.Body(), &payload)

	if resp.StatusCode() == http.StatusNotFound || (decodeErr == nil && payload.Chart.Error.notFound()) {
		return &market.History{}, nil
	}
	if !resp.IsSuccess() {
		return nil, &market.UpstreamError{Op: "chart", Ticker: ticker, StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s", snippet(resp.Body()))}
	}
	if decodeErr != nil {
		return nil, &market.UpstreamError{Op: "chart", Ticker: ticker, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if payload.Chart.Error != nil {
		return nil, &market.UpstreamError{Op: "chart", Ticker: ticker, StatusCode: http.StatusBadRequest, Err: payload.Chart.Error}
	}
	if len(payload.Chart.Result) == 0 {
		return &market.History{}, nil
	}
	return payload.Chart.Result[0].history(), nil
}

func (r chartResult) history() *market.History {
	rows := len(r.Timestamp)
	h := &market.History{Dates: make([]time.Time, rows)}
	for i, ts := range r.Timestamp {
		h.Dates[i] = time.Unix(ts, 0).UTC()
	}
	if rows == 0 {
		return h
	}
	if len(r.Indicators.Quote) == 0 {
		// Rows without any quote block carry no close column.
		return h
	}
	q := r.Indicators.Quote[0]
	h.Open = floats(q.Open, rows)
	h.High = floats(q.High, rows)
	h.Low = floats(q.Low, rows)
	h.Volume = floats(q.Volume, rows)
	if q.Close != nil {
		h.Close = floats(q.Close, rows)
	}
	return h
}

// floats converts a nullable column to NaN-padded values of length rows.
func floats(values []*float64, rows int) []float64 {
	out := make([]float64, rows)
	for i := range out {
		if i < len(values) && values[i] != nil {
			out[i] = *values[i]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
