package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobboard/internal/catalog"
	"jobboard/internal/company"
	"jobboard/internal/core/auth"
	"jobboard/internal/core/config"
	"jobboard/internal/core/server"
	"jobboard/internal/identity"
	"jobboard/internal/listing"
	mdw "jobboard/internal/transport/http/middleware"
)

// Deps 两个引擎共用的装配件
type Deps struct {
	Log       *zap.Logger
	DB        *gorm.DB
	JWTer     *auth.JWTer
	Store     *identity.Store
	Companies *company.Service
	Listings  *listing.Service
	Catalog   *catalog.Service
	Uploads   config.Uploads
	BaseURL   string // 公共桶对象的访问前缀
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log)

	// 中间件
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

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api/v1")

	// 公共：注册/登录 + 职位搜索
	mountAuthActions(api, d)
	mountPublicJobs(api, d)

	// 鉴权分组：每个请求装载一次 actor 快照
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWTer), mdw.WithActor(d.Store))

	mountMe(authed, d)
	mountOnboarding(authed, d)
	mountRegistrationDocs(authed, d)

	// 公司作用域：没入驻的用户在闸口就被挡回
	scoped := authed.Group("")
	scoped.Use(mdw.EnsureOnboarded(func(c *gin.Context, uid string) (bool, error) {
		return d.Companies.HasCompany(c.Request.Context(), uid)
	}))

	mountCompany(scoped, d)
	mountListings(scoped, d)

	return r
}
