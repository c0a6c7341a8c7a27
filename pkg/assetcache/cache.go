// Package assetcache memoises whole fetch batches keyed by the canonical
// ticker set, period and interval. Failed tickers are cached alongside
// successes so a known-bad ticker is not re-requested within the TTL.
package assetcache

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/singleflight"

	"smartmoney/pkg/market"
)

// BatchFetcher retrieves a batch of tickers in order; every ticker must be
// present in the result.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, tickers []string, period market.Period, interval market.Interval) []market.AssetRecord
}

// Result is the answer to one cache request.
type Result struct {
	Key        Key
	BatchID    string
	Records    map[string]market.AssetRecord
	InsertedAt time.Time
	// Cached is true when the records came from a stored entry.
	Cached bool
	// Stored is false for batches interrupted by cancellation.
	Stored bool

	interrupted bool
}

// maxRejoins bounds how often a live caller restarts a batch that every other
// participant abandoned.
const maxRejoins = 3

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Fetches     int64 `json:"fetches"`
	SharedWaits int64 `json:"sharedWaits"`
	Evictions   int64 `json:"evictions"`
	Interrupted int64 `json:"interrupted"`
}

// Cache fronts a BatchFetcher with a Store.
type Cache struct {
	fetcher     BatchFetcher
	store       Store
	policy      TTLPolicy
	maxEntries  int
	persistence market.Persistence
	provider    string
	now         func() time.Time
	newBatchID  func() string

	flights singleflight.Group
	mu      sync.Mutex
	active  map[string]*flight

	hits        atomic.Int64
	misses      atomic.Int64
	fetches     atomic.Int64
	sharedWaits atomic.Int64
	evictions   atomic.Int64
	interrupted atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore replaces the default in-memory store.
func WithStore(store Store) Option {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithTTLPolicy sets the short and long lifetimes.
func WithTTLPolicy(policy TTLPolicy) Option {
	return func(c *Cache) { c.policy = policy.normalised() }
}

// WithMaxEntries bounds the number of stored batches; <= 0 means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithPersistence mirrors every stored batch to an external sink.
func WithPersistence(p market.Persistence, provider string) Option {
	return func(c *Cache) {
		c.persistence = p
		c.provider = provider
	}
}

// WithClock replaces the clock used for insertion times and expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Cache in front of fetcher.
func New(fetcher BatchFetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:    fetcher,
		store:      NewMemoryStore(),
		policy:     DefaultTTLPolicy(),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		newBatchID: uuid.NewString,
		active:     make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the TTL policy in use.
func (c *Cache) Policy() TTLPolicy { return c.policy }

// GetOrFetch returns a record for every requested ticker, keyed by canonical
// ticker. It never fails: upstream trouble surfaces as Failed records.
func (c *Cache) GetOrFetch(ctx context.Context, tickers []string, period market.Period, interval market.Interval, forceFresh bool) map[string]market.AssetRecord {
	return c.Resolve(ctx, tickers, period, interval, forceFresh).Records
}

// Resolve is GetOrFetch with batch details attached.
func (c *Cache) Resolve(ctx context.Context, tickers []string, period market.Period, interval market.Interval, forceFresh bool) Result {
	key := NewKey(tickers, period, interval)
	if key.Empty() {
		return Result{Key: key, Records: map[string]market.AssetRecord{}}
	}
	modeTTL := c.policy.For(forceFresh)

	if entry := c.lookup(ctx, key, modeTTL); entry != nil {
		c.hits.Add(1)
		out := resultFrom(entry, true)
		out.Records = copyRecords(out.Records)
		return out
	}
	c.misses.Add(1)

	for rejoin := 0; ; rejoin++ {
		out, err := c.await(ctx, key, modeTTL)
		if err != nil {
			return Result{Key: key, Records: placeholders(key, market.NetworkErrorReason(err, 0), c.now())}
		}
		// A batch abandoned by everyone else is no result for a caller still waiting.
		if out.interrupted && ctx.Err() == nil && rejoin < maxRejoins {
			continue
		}
		out.Records = copyRecords(out.Records)
		return out
	}
}

// await joins the flight for key, starting one when none is running. The
// flight's context is cancelled only once every joined caller has given up.
func (c *Cache) await(ctx context.Context, key Key, modeTTL time.Duration) (Result, error) {
	name := key.String()
	f := c.join(ctx, name)
	defer c.leave(name, f)

	ch := c.flights.DoChan(name, func() (any, error) {
		return c.fill(f.ctx, key, modeTTL), nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.sharedWaits.Add(1)
		}
		return res.Val.(Result), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

type flight struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

func (c *Cache) join(ctx context.Context, name string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.active[name]
	if f == nil || f.ctx.Err() != nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.active[name] = f
	}
	f.refs++
	return f
}

func (c *Cache) leave(name string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.refs--
	if f.refs > 0 {
		return
	}
	f.cancel()
	if c.active[name] == f {
		delete(c.active, name)
	}
}

// fill runs inside the single flight for key.
func (c *Cache) fill(ctx context.Context, key Key, modeTTL time.Duration) Result {
	if entry := c.lookup(ctx, key, modeTTL); entry != nil {
		return resultFrom(entry, true)
	}

	c.fetches.Add(1)
	batchID := c.newBatchID()
	logger := logx.WithContext(ctx)
	logger.Infof("assetcache: fetching batch=%s key=%s", batchID, key)

	fetched := c.fetcher.FetchBatch(ctx, key.Tickers, key.Period, key.Interval)
	records := make(map[string]market.AssetRecord, len(key.Tickers))
	for _, r := range fetched {
		records[CanonicalTicker(r.Ticker)] = r
	}
	now := c.now()
	for _, t := range key.Tickers {
		if _, ok := records[t]; !ok {
			records[t] = market.Placeholder(t, market.ReasonEmptyData)
		}
	}

	entry := &Entry{
		Key:        key,
		BatchID:    batchID,
		Records:    records,
		InsertedAt: now,
		TTL:        modeTTL,
	}
	if err := ctx.Err(); err != nil {
		c.interrupted.Add(1)
		logger.Infof("assetcache: batch=%s interrupted (%v), not stored", batchID, err)
		out := resultFrom(entry, false)
		out.interrupted = true
		return out
	}

	evicted, err := c.store.Save(ctx, entry, c.maxEntries)
	if err != nil {
		logger.Errorf("assetcache: store batch=%s key=%s: %v", batchID, key, err)
	}
	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		logger.Infof("assetcache: evicted %d entr(ies) to keep at most %d", evicted, c.maxEntries)
	}
	c.persist(ctx, entry)

	out := resultFrom(entry, false)
	out.Stored = err == nil
	return out
}

func (c *Cache) lookup(ctx context.Context, key Key, modeTTL time.Duration) *Entry {
	entry, ok, err := c.store.Load(ctx, key.String())
	if err != nil {
		logx.WithContext(ctx).Errorf("assetcache: load key=%s: %v", key, err)
		return nil
	}
	if !ok || !entry.liveFor(c.now(), modeTTL) {
		return nil
	}
	return entry
}

func (c *Cache) persist(ctx context.Context, entry *Entry) {
	if c.persistence == nil {
		return
	}
	records := make([]market.AssetRecord, 0, len(entry.Key.Tickers))
	for _, t := range entry.Key.Tickers {
		records = append(records, entry.Records[t])
	}
	if err := c.persistence.RecordAssets(ctx, c.provider, entry.Key.Period, entry.Key.Interval, records); err != nil {
		logx.WithContext(ctx).Errorf("assetcache: persist batch=%s: %v", entry.BatchID, err)
	}
}

// Clear drops every stored entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Evict drops the entry for one ticker set, reporting whether it existed.
func (c *Cache) Evict(ctx context.Context, tickers []string, period market.Period, interval market.Interval) (bool, error) {
	return c.store.Delete(ctx, NewKey(tickers, period, interval).String())
}

// Len returns the number of stored entries, live or not.
func (c *Cache) Len(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Fetches:     c.fetches.Load(),
		SharedWaits: c.sharedWaits.Load(),
		Evictions:   c.evictions.Load(),
		Interrupted: c.interrupted.Load(),
	}
}

func resultFrom(e *Entry, cached bool) Result {
	return Result{
		Key:        e.Key,
		BatchID:    e.BatchID,
		Records:    e.Records,
		InsertedAt: e.InsertedAt,
		Cached:     cached,
		Stored:     cached,
	}
}

// copyRecords clones the map and each record's bars and metadata so callers
// cannot edit a stored entry in place.
func copyRecords(in map[string]market.AssetRecord) map[string]market.AssetRecord {
	out := make(map[string]market.AssetRecord, len(in))
	for k, v := range in {
		if v.Prices != nil {
			v.Prices = slices.Clone(v.Prices)
		}
		if v.Metadata != nil {
			v.Metadata = maps.Clone(v.Metadata)
		}
		out[k] = v
	}
	return out
}

func placeholders(key Key, reason string, now time.Time) map[string]market.AssetRecord {
	out := make(map[string]market.AssetRecord, len(key.Tickers))
	for _, t := range key.Tickers {
		r := market.Placeholder(t, reason)
		r.FetchedAt = now
		out[t] = r
	}
	return out
}
