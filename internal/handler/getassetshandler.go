package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"smartmoney/internal/logic"
	"smartmoney/internal/svc"
	"smartmoney/internal/types"
)

func GetAssetsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AssetsRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewGetAssetsLogic(r.Context(), svcCtx)
		resp, err := l.GetAssets(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
