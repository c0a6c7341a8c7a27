package svc

import (
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachepkg "smartmoney/internal/cache"
	"smartmoney/internal/config"
	marketpersist "smartmoney/internal/persistence/market"
	"smartmoney/pkg/assetcache"
	"smartmoney/pkg/fetcher"
	marketpkg "smartmoney/pkg/market"
	_ "smartmoney/pkg/market/yahoo"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig  *marketpkg.Config
	DefaultMarket marketpkg.Provider
	MarketName    string

	Fetcher *fetcher.Fetcher
	Assets  *assetcache.Cache
	Store   assetcache.Store

	// Optional persistence (only when a DSN is configured)
	DBConn      sqlx.SqlConn
	Persistence *marketpersist.Service
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	marketCfg := c.Market.ValueOr(marketpkg.MustLoad)
	provider, name, err := marketCfg.BuildDefault(c.Fetch.Provider)
	if err != nil {
		log.Fatalf("failed to build market provider: %v", err)
	}
	svc.MarketConfig = marketCfg
	svc.DefaultMarket = provider
	svc.MarketName = name

	svc.Fetcher = fetcher.New(provider,
		fetcher.WithThresholds(c.Thresholds()),
		fetcher.WithMaxAttempts(c.Fetch.MaxAttempts),
		fetcher.WithBackoff(c.Fetch.BaseDelay, c.Fetch.MaxDelay, c.Fetch.Jitter),
		fetcher.WithPacing(c.Fetch.Pacing),
		fetcher.WithReasonMaxLen(c.Fetch.ReasonMaxLen),
	)

	policy := cachepkg.NewTTLPolicy(c.Cache)
	svc.Store = assetcache.NewMemoryStore()
	if strings.EqualFold(c.Cache.Store, "redis") {
		client := cachepkg.NewRedisClient(c.Redis)
		svc.Store = cachepkg.NewRedisStore(client, cachepkg.EntryExpiry(policy))
	}

	opts := []assetcache.Option{
		assetcache.WithStore(svc.Store),
		assetcache.WithTTLPolicy(policy),
		assetcache.WithMaxEntries(c.Cache.MaxEntries),
	}

	// Only mirror to Postgres when DSN provided; the cache works without it.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		var lastClose gocache.Cache
		if strings.TrimSpace(c.Redis.Host) != "" {
			lastClose = gocache.New(
				gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
				syncx.NewSingleFlight(),
				gocache.NewStat("smartmoney"),
				errNotFound,
			)
		}
		svc.DBConn = conn
		svc.Persistence = marketpersist.NewService(marketpersist.Config{
			SQLConn: conn,
			Cache:   lastClose,
			TTL:     policy,
		})
		opts = append(opts, assetcache.WithPersistence(svc.Persistence, name))
	}

	svc.Assets = assetcache.New(svc.Fetcher, opts...)
	return svc
}
