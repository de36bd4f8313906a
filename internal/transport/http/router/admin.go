package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobboard/internal/core/server"
	mdw "jobboard/internal/transport/http/middleware"
)

// NewAdminEngine 管理面不校验角色名，逐路由走策略令牌。
// 没有 manage roles / view all companies 等令牌的账号拿到的是笼统 403
func NewAdminEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 + 指标暴露（管理端口，不对公网）
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWTer), mdw.WithActor(d.Store))

	mountRBACActions(admin, d)
	mountCatalogActions(admin, d)
	mountCompanyOversight(admin, d)

	return r
}
