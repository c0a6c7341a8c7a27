package assetcache

import (
	"fmt"
	"sort"
	"strings"

	"smartmoney/pkg/market"
)

// Key identifies one cached batch. Ticker order in the request never matters.
type Key struct {
	Tickers  []string        `msgpack:"tickers"`
	Period   market.Period   `msgpack:"period"`
	Interval market.Interval `msgpack:"interval"`
}

// NewKey canonicalises tickers (trimmed, upper-cased, de-duplicated, sorted).
func NewKey(tickers []string, period market.Period, interval market.Interval) Key {
	seen := make(map[string]struct{}, len(tickers))
	canonical := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = CanonicalTicker(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		canonical = append(canonical, t)
	}
	sort.Strings(canonical)
	return Key{Tickers: canonical, Period: period, Interval: interval}
}

// CanonicalTicker is the ticker form used as a map key in results.
func CanonicalTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// String renders the key as period|interval|T1,T2.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Period, k.Interval, strings.Join(k.Tickers, ","))
}

// Empty reports whether no ticker survived canonicalisation.
func (k Key) Empty() bool { return len(k.Tickers) == 0 }
