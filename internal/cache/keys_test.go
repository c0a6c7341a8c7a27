package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartmoney/internal/config"
	"smartmoney/pkg/assetcache"
)

func TestFormatKeySkipsBlankParts(t *testing.T) {
	assert.Equal(t, "smartmoney:{batch}:1y|1d|SPY", EntryKey("1y|1d|SPY"))
	assert.Equal(t, "smartmoney:{batch}:index", EntryIndexKey())
	assert.Equal(t, "smartmoney:price:latest:yahoo:SPY", PriceLatestByProviderKey("yahoo", " SPY "))
	assert.Equal(t, "smartmoney:price:latest:SPY", PriceLatestByProviderKey("", "SPY"))
	assert.Equal(t, "base:suffix", BuildKeyWithSuffix("base", " suffix "))
	assert.Equal(t, "base", BuildKeyWithSuffix("base", "  "))
}

func TestNewTTLPolicy(t *testing.T) {
	policy := NewTTLPolicy(config.CacheConf{ShortTTL: 5 * time.Minute})
	assert.Equal(t, 5*time.Minute, policy.Short)
	assert.Equal(t, assetcache.DefaultLongTTL, policy.Long)

	assert.Equal(t, assetcache.DefaultLongTTL+expirySlack, EntryExpiry(policy))
	assert.Equal(t, 5*time.Minute, PriceLatestTTL(policy))
}

// clusterHashTag mirrors how Redis Cluster picks the hashed part of a key.
func clusterHashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return key
	}
	return key[start+1 : start+1+end]
}

func TestBatchKeysShareClusterSlot(t *testing.T) {
	store := NewRedisStore(nil, time.Hour).WithKeyPrefix("test-run")
	index := clusterHashTag(store.indexKey())
	assert.Equal(t, "batch", index)
	for _, k := range []string{"1y|1d|SPY", "5y|1wk|GLD,QQQ,TLT"} {
		assert.Equal(t, index, clusterHashTag(store.entryKey(k)))
		assert.Equal(t, index, clusterHashTag(EntryKey(k)))
	}
}
