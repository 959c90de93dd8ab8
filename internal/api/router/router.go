package router

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"priority-delivery/config"
	"priority-delivery/internal/api/handler"
	"priority-delivery/internal/api/middleware"
	"priority-delivery/pkg/jwt"
)

// Deps 路由依赖的基础设施；Blacklist / Limiter 可为 nil（降级放行）
type Deps struct {
	JWT       *jwt.Manager
	Enforcer  *casbin.Enforcer
	Blacklist middleware.Blacklist
	Limiter   middleware.Limiter
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限流）
		loginLimit := middleware.RateLimit(deps.Limiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/otp/verify", loginLimit, h.Auth.VerifyOTP)
		}

		// 配送请求（公开）
		requests := v1.Group("/requests")
		{
			requests.POST("", h.DeliveryRequest.PlaceOrder)
			requests.GET("", h.DeliveryRequest.ListRequests)
			requests.GET("/:id", h.DeliveryRequest.GetRequest)
			requests.POST("/:id/feedback", h.DeliveryRequest.SubmitFeedback)
		}

		// 需要管理员认证 + casbin 授权的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Blacklist), middleware.Authorize(deps.Enforcer))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			admin := authorized.Group("/admin")
			{
				admin.GET("/queue", h.Admin.PriorityQueue)
				admin.GET("/queue/medium", h.Admin.OverrideQueue)
				admin.PUT("/requests/:id/override", h.Admin.Override)
				admin.POST("/requests/advance", h.Admin.AdvanceStatuses)
				admin.GET("/export/queue", h.Export.ExportQueue)
			}
		}
	}

	return r
}
