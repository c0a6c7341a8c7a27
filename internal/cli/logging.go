package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/internal/config"
	"smartmoney/pkg/confkit"
	"smartmoney/pkg/market"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	store := cfg.Cache.Store
	if store == "" {
		store = "memory"
	}
	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("Cache: store=%s ttl(short/long)=%s / %s max_entries=%d",
			store, cfg.Cache.ShortTTL, cfg.Cache.LongTTL, cfg.Cache.MaxEntries),
		fmt.Sprintf("Fetch: attempts=%d backoff=%s..%s jitter=%.2f pacing=%s",
			cfg.Fetch.MaxAttempts, cfg.Fetch.BaseDelay, cfg.Fetch.MaxDelay, cfg.Fetch.Jitter, cfg.Fetch.Pacing),
		fmt.Sprintf("Quality: min_rows=%d min_closes=%d min_close_ratio=%.2f",
			cfg.Quality.MinRows, cfg.Quality.MinCloses, cfg.Quality.MinCloseRatio),
		sectionLine("Market config", cfg.Market),
	}
	if len(cfg.Watch.Tickers) > 0 {
		lines = append(lines, fmt.Sprintf("Watch: %s every %s (%s/%s)",
			strings.Join(cfg.Watch.Tickers, ","), cfg.Watch.Every, cfg.Watch.Period, cfg.Watch.Interval))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

// RecordSummaryLines renders one line per record in ticker order. Placeholders
// are flagged so they are never mistaken for data.
func RecordSummaryLines(records map[string]market.AssetRecord) []string {
	tickers := make([]string, 0, len(records))
	for t := range records {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	lines := make([]string, 0, len(tickers))
	for _, t := range tickers {
		r := records[t]
		if !r.Status.IsOK() {
			lines = append(lines, fmt.Sprintf("%-8s FAILED(%s) attempts=%d", t, r.Status.Reason, r.Attempts))
			continue
		}
		last, _ := r.LastClose()
		line := fmt.Sprintf("%-8s ok rows=%d last=%.2f attempts=%d", t, len(r.Prices), last, r.Attempts)
		if qt := r.Metadata.QuoteType(); qt != "" {
			line += " type=" + qt
		}
		lines = append(lines, line)
	}
	return lines
}

// FailedCount reports how many records are placeholders.
func FailedCount(records map[string]market.AssetRecord) int {
	n := 0
	for _, r := range records {
		if !r.Status.IsOK() {
			n++
		}
	}
	return n
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
