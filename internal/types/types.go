// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

type AssetsRequest struct {
	Tickers  string `form:"tickers"`
	Period   string `form:"period,default=1y"`
	Interval string `form:"interval,default=1d"`
	Fresh    bool   `form:"fresh,optional"`
}

type Bar struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

type Indicators struct {
	Change     *float64 `json:"change"`
	EMA20      *float64 `json:"ema20"`
	RSI14      *float64 `json:"rsi14"`
	MACDHist   *float64 `json:"macdHist"`
	ATR14      *float64 `json:"atr14"`
	Volatility *float64 `json:"volatility"`
}

type AssetRecord struct {
	Ticker     string         `json:"ticker"`
	Status     string         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Attempts   int            `json:"attempts"`
	FetchedAt  int64          `json:"fetchedAt"`
	LastClose  *float64       `json:"lastClose"`
	QuoteType  string         `json:"quoteType,omitempty"`
	Bars       []Bar          `json:"bars"`
	Metadata   map[string]any `json:"metadata"`
	Indicators *Indicators    `json:"indicators,omitempty"`
}

type AssetsResponse struct {
	Key        string        `json:"key"`
	Batch      string        `json:"batch,omitempty"`
	Cached     bool          `json:"cached"`
	Stored     bool          `json:"stored"`
	InsertedAt int64         `json:"insertedAt"`
	Failed     int           `json:"failed"`
	Records    []AssetRecord `json:"records"`
}

type EvictRequest struct {
	Tickers  string `form:"tickers"`
	Period   string `form:"period,default=1y"`
	Interval string `form:"interval,default=1d"`
}

type EvictResponse struct {
	Key     string `json:"key"`
	Evicted bool   `json:"evicted"`
}

type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

type CacheStats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Fetches     int64 `json:"fetches"`
	SharedWaits int64 `json:"sharedWaits"`
	Evictions   int64 `json:"evictions"`
	Interrupted int64 `json:"interrupted"`
}

type HealthResponse struct {
	Status   string     `json:"status"`
	Env      string     `json:"env"`
	Provider string     `json:"provider"`
	Store    string     `json:"store"`
	Entries  int        `json:"entries"`
	ShortTTL string     `json:"shortTTL"`
	LongTTL  string     `json:"longTTL"`
	Stats    CacheStats `json:"stats"`
}
