package assetcache

import (
	"time"

	"smartmoney/pkg/market"
)

const (
	DefaultShortTTL   = 15 * time.Minute
	DefaultLongTTL    = 72 * time.Hour
	DefaultMaxEntries = 256
)

// Entry is one stored batch. Entries are never mutated once saved; a refresh
// replaces the entry wholesale.
type Entry struct {
	Key        Key                           `msgpack:"key"`
	BatchID    string                        `msgpack:"batch_id"`
	Records    map[string]market.AssetRecord `msgpack:"records"`
	InsertedAt time.Time                     `msgpack:"inserted_at"`
	TTL        time.Duration                 `msgpack:"ttl"`
}

// Age returns how long ago the entry was inserted.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.InsertedAt)
}

// Expired reports now - InsertedAt > TTL.
func (e *Entry) Expired(now time.Time) bool {
	return e.Age(now) > e.TTL
}

// liveFor reports whether the entry may serve a request whose mode allows
// entries up to modeTTL old.
func (e *Entry) liveFor(now time.Time, modeTTL time.Duration) bool {
	if e == nil || e.Expired(now) {
		return false
	}
	return e.Age(now) <= modeTTL
}

// TTLPolicy maps the caller's freshness preference onto a lifetime.
type TTLPolicy struct {
	Short time.Duration
	Long  time.Duration
}

// DefaultTTLPolicy returns 15 minutes for fresh reads and 72 hours otherwise.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Short: DefaultShortTTL, Long: DefaultLongTTL}
}

// For returns the TTL for the requested mode.
func (p TTLPolicy) For(forceFresh bool) time.Duration {
	if forceFresh {
		return p.Short
	}
	return p.Long
}

func (p TTLPolicy) normalised() TTLPolicy {
	if p.Short <= 0 {
		p.Short = DefaultShortTTL
	}
	if p.Long <= 0 {
		p.Long = DefaultLongTTL
	}
	return p
}
