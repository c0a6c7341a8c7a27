package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/internal/svc"
	"smartmoney/internal/types"
	"smartmoney/pkg/assetcache"
)

type CacheLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCacheLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CacheLogic {
	return &CacheLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CacheLogic) Clear() (*types.ClearResponse, error) {
	if err := l.svcCtx.Assets.Clear(l.ctx); err != nil {
		return nil, err
	}
	l.Info("asset cache cleared")
	return &types.ClearResponse{Cleared: true}, nil
}

func (l *CacheLogic) Evict(req *types.EvictRequest) (*types.EvictResponse, error) {
	tickers := splitTickers(req.Tickers)
	if len(tickers) == 0 {
		return nil, errNoTickers
	}
	period, interval, err := parseWindow(req.Period, req.Interval)
	if err != nil {
		return nil, err
	}
	evicted, err := l.svcCtx.Assets.Evict(l.ctx, tickers, period, interval)
	if err != nil {
		return nil, err
	}
	return &types.EvictResponse{
		Key:     assetcache.NewKey(tickers, period, interval).String(),
		Evicted: evicted,
	}, nil
}
