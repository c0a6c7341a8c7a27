package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/internal/svc"
	"smartmoney/internal/types"
)

type HealthLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *HealthLogic) Health() (*types.HealthResponse, error) {
	status := "ok"
	entries, err := l.svcCtx.Assets.Len(l.ctx)
	if err != nil {
		l.Errorf("health: store len: %v", err)
		status = "degraded"
	}
	stats := l.svcCtx.Assets.Stats()
	policy := l.svcCtx.Assets.Policy()
	return &types.HealthResponse{
		Status:   status,
		Env:      l.svcCtx.Config.Env,
		Provider: l.svcCtx.MarketName,
		Store:    l.svcCtx.Config.Cache.Store,
		Entries:  entries,
		ShortTTL: policy.Short.String(),
		LongTTL:  policy.Long.String(),
		Stats: types.CacheStats{
			Hits:        stats.Hits,
			Misses:      stats.Misses,
			Fetches:     stats.Fetches,
			SharedWaits: stats.SharedWaits,
			Evictions:   stats.Evictions,
			Interrupted: stats.Interrupted,
		},
	}, nil
}
