package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"smartmoney/internal/svc"
	"smartmoney/internal/types"
)

type GetAssetsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetAssetsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetAssetsLogic {
	return &GetAssetsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetAssetsLogic) GetAssets(req *types.AssetsRequest) (resp *types.AssetsResponse, err error) {
	tickers := splitTickers(req.Tickers)
	if len(tickers) == 0 {
		return nil, errNoTickers
	}
	period, interval, err := parseWindow(req.Period, req.Interval)
	if err != nil {
		return nil, err
	}

	res := l.svcCtx.Assets.Resolve(l.ctx, tickers, period, interval, req.Fresh)
	records, failed := toRecords(res.Records)
	if failed > 0 {
		l.Infof("assets key=%s batch=%s failed=%d/%d", res.Key, res.BatchID, failed, len(records))
	}

	resp = &types.AssetsResponse{
		Key:     res.Key.String(),
		Batch:   res.BatchID,
		Cached:  res.Cached,
		Stored:  res.Stored,
		Failed:  failed,
		Records: records,
	}
	if !res.InsertedAt.IsZero() {
		resp.InsertedAt = res.InsertedAt.UnixMilli()
	}
	return resp, nil
}
