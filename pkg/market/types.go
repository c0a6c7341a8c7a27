package market

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Period is the look-back window requested from a provider.
type Period string

const (
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

var validPeriods = map[Period]struct{}{
	Period1mo: {}, Period3mo: {}, Period6mo: {}, Period1y: {}, Period2y: {},
	Period5y: {}, Period10y: {}, PeriodYTD: {}, PeriodMax: {},
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validPeriods[p]; !ok {
		return "", fmt.Errorf("market: unsupported period %q", s)
	}
	return p, nil
}

// Interval is the bar size of a price history.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// ParseInterval validates an interval string.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return i, nil
	default:
		return "", fmt.Errorf("market: unsupported interval %q", s)
	}
}

// Bar is one OHLCV observation. Missing values are NaN.
type Bar struct {
	Date   time.Time `json:"date" msgpack:"date"`
	Open   float64   `json:"open" msgpack:"open"`
	High   float64   `json:"high" msgpack:"high"`
	Low    float64   `json:"low" msgpack:"low"`
	Close  float64   `json:"close" msgpack:"close"`
	Volume float64   `json:"volume" msgpack:"volume"`
}

// History is the raw price table returned by a provider. Columns are parallel
// to Dates; a nil Close means the provider did not return a close column.
type History struct {
	Dates  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Dates)
}

// ValidCloses counts rows with a non-NaN close.
func (h *History) ValidCloses() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, c := range h.Close {
		if !math.IsNaN(c) {
			n++
		}
	}
	return n
}

// Bars converts the table into bars ordered oldest to newest. Every row is
// kept, so the bars are exactly the table the quality gate judged; a missing
// close stays NaN.
func (h *History) Bars() []Bar {
	bars := make([]Bar, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		bars = append(bars, Bar{
			Date:   h.Dates[i],
			Open:   column(h.Open, i),
			High:   column(h.High, i),
			Low:    column(h.Low, i),
			Close:  column(h.Close, i),
			Volume: column(h.Volume, i),
		})
	}
	return bars
}

func column(values []float64, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

// MetaKind enumerates the scalar kinds a metadata value can hold.
type MetaKind uint8

const (
	MetaNull MetaKind = iota
	MetaNumber
	MetaString
	MetaBool
)

// MetaValue is a scalar metadata value: number, string, bool or null.
type MetaValue struct {
	Kind   MetaKind `msgpack:"k"`
	Number float64  `msgpack:"n,omitempty"`
	Text   string   `msgpack:"s,omitempty"`
	Flag   bool     `msgpack:"b,omitempty"`
}

func Number(v float64) MetaValue { return MetaValue{Kind: MetaNumber, Number: v} }
func String(v string) MetaValue  { return MetaValue{Kind: MetaString, Text: v} }
func Bool(v bool) MetaValue      { return MetaValue{Kind: MetaBool, Flag: v} }
func Null() MetaValue            { return MetaValue{} }

func (v MetaValue) IsNull() bool { return v.Kind == MetaNull }

// AsFloat returns the numeric value and whether the value is a number.
func (v MetaValue) AsFloat() (float64, bool) {
	return v.Number, v.Kind == MetaNumber
}

// AsString returns the string value and whether the value is a string.
func (v MetaValue) AsString() (string, bool) {
	return v.Text, v.Kind == MetaString
}

// AsBool returns the boolean value and whether the value is a bool.
func (v MetaValue) AsBool() (bool, bool) {
	return v.Flag, v.Kind == MetaBool
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetaNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Number)
	case MetaString:
		return json.Marshal(v.Text)
	case MetaBool:
		return json.Marshal(v.Flag)
	default:
		return []byte("null"), nil
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	converted, ok := MetaValueOf(raw)
	if !ok {
		return fmt.Errorf("market: metadata value must be a scalar, got %s", string(data))
	}
	*v = converted
	return nil
}

// MetaValueOf converts a decoded JSON scalar. Objects and arrays are rejected.
func MetaValueOf(raw any) (MetaValue, bool) {
	switch t := raw.(type) {
	case nil:
		return Null(), true
	case float64:
		return Number(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return MetaValue{}, false
		}
		return Number(f), true
	case int:
		return Number(float64(t)), true
	case int64:
		return Number(float64(t)), true
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	default:
		return MetaValue{}, false
	}
}

// Metadata holds a provider's descriptive fields for a ticker.
type Metadata map[string]MetaValue

// Get returns the value for key; absent keys report false.
func (m Metadata) Get(key string) (MetaValue, bool) {
	v, ok := m[key]
	return v, ok
}

// Float returns a numeric field, false when absent or not a number.
func (m Metadata) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// String returns a string field, false when absent or not a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// QuoteType returns the upper-cased classification hint (e.g. "ETF", "EQUITY").
func (m Metadata) QuoteType() string {
	s, _ := m.String("quoteType")
	return strings.ToUpper(s)
}

// StatusCode distinguishes usable records from placeholders.
type StatusCode uint8

const (
	StatusOK StatusCode = iota
	StatusFailed
)

func (c StatusCode) String() string {
	if c == StatusOK {
		return "ok"
	}
	return "failed"
}

// Failure reasons recorded on placeholder records.
const (
	ReasonEmptyData        = "empty_data"
	ReasonInsufficientRows = "insufficient_rows"
	ReasonMissingClose     = "missing_close"
	reasonNetworkPrefix    = "network_error:"
)

// Status is the outcome of a fetch.
type Status struct {
	Code   StatusCode `json:"code" msgpack:"code"`
	Reason string     `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

func OK() Status                  { return Status{Code: StatusOK} }
func Failed(reason string) Status { return Status{Code: StatusFailed, Reason: reason} }

func (s Status) IsOK() bool { return s.Code == StatusOK }

func (s Status) String() string {
	if s.Code == StatusOK {
		return "ok"
	}
	return fmt.Sprintf("failed(%s)", s.Reason)
}

// NetworkErrorReason builds a network_error reason truncated to max runes of
// message (0 keeps the whole message).
func NetworkErrorReason(err error, max int) string {
	msg := "unknown"
	if err != nil {
		msg = strings.Join(strings.Fields(err.Error()), " ")
	}
	if max > 0 {
		if runes := []rune(msg); len(runes) > max {
			msg = string(runes[:max])
		}
	}
	return reasonNetworkPrefix + msg
}

// IsNetworkReason reports whether a failure reason came from a transport error.
func IsNetworkReason(reason string) bool {
	return strings.HasPrefix(reason, reasonNetworkPrefix)
}

// AssetRecord is one ticker's fetch result.
type AssetRecord struct {
	Ticker    string    `msgpack:"ticker"`
	Prices    []Bar     `msgpack:"prices"`
	Metadata  Metadata  `msgpack:"metadata"`
	Status    Status    `msgpack:"status"`
	Attempts  int       `msgpack:"attempts"`
	FetchedAt time.Time `msgpack:"fetched_at"`
}

// Placeholder returns a failed record whose collections are empty but non-nil.
func Placeholder(ticker, reason string) AssetRecord {
	return AssetRecord{
		Ticker:   ticker,
		Prices:   []Bar{},
		Metadata: Metadata{},
		Status:   Failed(reason),
	}
}

// LastClose returns the most recent non-NaN close price.
func (r AssetRecord) LastClose() (float64, bool) {
	for i := len(r.Prices) - 1; i >= 0; i-- {
		if c := r.Prices[i].Close; !math.IsNaN(c) {
			return c, true
		}
	}
	return 0, false
}
