package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	zeroredis "github.com/zeromicro/go-zero/core/stores/redis"

	"smartmoney/pkg/assetcache"
	"smartmoney/pkg/market"
)

var _ assetcache.Store = (*RedisStore)(nil)

// RedisStore shares batch entries between processes. Entries are msgpack
// blobs; a sorted set scored by insertion time drives eviction.
type RedisStore struct {
	client goredis.UniversalClient
	expiry time.Duration
	prefix string
}

// NewRedisClient builds a go-redis client from the go-zero Redis section.
// A comma separated host list or Type=cluster yields a cluster client.
func NewRedisClient(cfg zeroredis.RedisConf) goredis.UniversalClient {
	addrs := strings.Split(cfg.Host, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	opts := &goredis.UniversalOptions{
		Addrs:    addrs,
		Password: cfg.Pass,
	}
	if cfg.Type == zeroredis.ClusterType && len(addrs) == 1 {
		return goredis.NewClusterClient(opts.Cluster())
	}
	return goredis.NewUniversalClient(opts)
}

// NewRedisStore wraps client. Keys expire after expiry as a safety net.
func NewRedisStore(client goredis.UniversalClient, expiry time.Duration) *RedisStore {
	return &RedisStore{client: client, expiry: expiry}
}

// WithKeyPrefix scopes every key under an extra segment (used by tests).
func (s *RedisStore) WithKeyPrefix(prefix string) *RedisStore {
	s.prefix = prefix
	return s
}

func (s *RedisStore) entryKey(cacheKey string) string {
	return BuildKeyWithSuffix(EntryKey(cacheKey), s.prefix)
}

func (s *RedisStore) indexKey() string {
	return BuildKeyWithSuffix(EntryIndexKey(), s.prefix)
}

func (s *RedisStore) Load(ctx context.Context, key string) (*assetcache.Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var entry assetcache.Entry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("decode entry %s: %w", key, err)
	}
	normaliseEntry(&entry)
	return &entry, true, nil
}

func (s *RedisStore) Save(ctx context.Context, entry *assetcache.Entry, maxEntries int) (int, error) {
	key := entry.Key.String()
	payload, err := msgpack.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("encode entry %s: %w", key, err)
	}

	index := s.indexKey()
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.entryKey(key), payload, s.expiry)
		pipe.ZAdd(ctx, index, goredis.Z{Score: float64(entry.InsertedAt.UnixMicro()), Member: key})
		if s.expiry > 0 {
			cutoff := entry.InsertedAt.Add(-s.expiry).UnixMicro()
			pipe.ZRemRangeByScore(ctx, index, "-inf", "("+strconv.FormatInt(cutoff, 10))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis save %s: %w", key, err)
	}
	if maxEntries <= 0 {
		return 0, nil
	}

	size, err := s.client.ZCard(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	excess := size - int64(maxEntries)
	if excess <= 0 {
		return 0, nil
	}
	oldest, err := s.client.ZRange(ctx, index, 0, excess-1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zrange: %w", err)
	}
	if err := s.remove(ctx, oldest); err != nil {
		return 0, err
	}
	return len(oldest), nil
}

func (s *RedisStore) remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	entryKeys := make([]string, len(keys))
	members := make([]any, len(keys))
	for i, k := range keys {
		entryKeys[i] = s.entryKey(k)
		members[i] = k
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, entryKeys...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.ZRem(ctx, s.indexKey(), key).Result()
	if err != nil {
		return false, fmt.Errorf("redis zrem %s: %w", key, err)
	}
	deleted, err := s.client.Del(ctx, s.entryKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", key, err)
	}
	return removed > 0 || deleted > 0, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis zrange: %w", err)
	}
	if err := s.remove(ctx, keys); err != nil {
		return err
	}
	return s.client.Del(ctx, s.indexKey()).Err()
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return int(n), nil
}

// normaliseEntry restores the empty-but-non-nil collections consumers rely on.
func normaliseEntry(e *assetcache.Entry) {
	if e.Records == nil {
		e.Records = map[string]market.AssetRecord{}
	}
	for t, r := range e.Records {
		if r.Prices == nil {
			r.Prices = []market.Bar{}
		}
		if r.Metadata == nil {
			r.Metadata = market.Metadata{}
		}
		e.Records[t] = r
	}
}
