// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"smartmoney/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/assets",
				Handler: GetAssetsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: HealthHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/cache",
				Handler: ClearCacheHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/cache/entry",
				Handler: EvictCacheHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api"),
	)
}
