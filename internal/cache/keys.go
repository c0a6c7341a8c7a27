package cache

import (
	"fmt"
	"strings"
	"time"

	"smartmoney/internal/config"
	"smartmoney/pkg/assetcache"
)

// Namespace is the Redis key prefix for the smartmoney application.
const Namespace = "smartmoney"

// expirySlack keeps Redis copies around a little longer than the longest TTL
// so expiry decisions stay with the cache, not with Redis.
const expirySlack = 10 * time.Minute

// NewTTLPolicy converts cache config into the two-mode TTL policy.
func NewTTLPolicy(cfg config.CacheConf) assetcache.TTLPolicy {
	return assetcache.TTLPolicy{
		Short: durationOrDefault(cfg.ShortTTL, assetcache.DefaultShortTTL),
		Long:  durationOrDefault(cfg.LongTTL, assetcache.DefaultLongTTL),
	}
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Batch entry keys -------------------------------------------------------

// batchSlot is a hash tag: entry and index keys must share one cluster slot
// because they are written in the same MULTI.
const batchSlot = "{batch}"

// EntryKey stores one msgpack-encoded batch entry.
func EntryKey(cacheKey string) string {
	return formatKey(batchSlot, cacheKey)
}

// EntryIndexKey is a sorted set of cache keys scored by insertion time.
func EntryIndexKey() string {
	return formatKey(batchSlot, "index")
}

// EntryExpiry returns the Redis expiry for batch entries.
func EntryExpiry(policy assetcache.TTLPolicy) time.Duration {
	longest := policy.Long
	if policy.Short > longest {
		longest = policy.Short
	}
	return longest + expirySlack
}

// --- Price keys -------------------------------------------------------------

// PriceLatestByProviderKey stores the last close seen for a ticker.
func PriceLatestByProviderKey(provider, ticker string) string {
	return formatKey("price", "latest", provider, ticker)
}

// PriceLatestTTL returns the TTL for last-close payloads.
func PriceLatestTTL(policy assetcache.TTLPolicy) time.Duration {
	return policy.Short
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
