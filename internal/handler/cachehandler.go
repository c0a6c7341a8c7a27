package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"smartmoney/internal/logic"
	"smartmoney/internal/svc"
	"smartmoney/internal/types"
)

func ClearCacheHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewCacheLogic(r.Context(), svcCtx)
		resp, err := l.Clear()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func EvictCacheHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EvictRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewCacheLogic(r.Context(), svcCtx)
		resp, err := l.Evict(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
