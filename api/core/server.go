package core

import (
	"net/http"
	"time"

	"github.com/anoixa/photo-share/api/middleware"
	"github.com/anoixa/photo-share/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter 创建 gin 引擎并注册路由，返回的函数用于停止后台清理
func setupRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	// 未配置来源时不启用 CORS，只允许同源访问
	if origins := cfg.AllowOrigins(); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	_ = router.SetTrustedProxies(nil)

	// 上传文件超过该大小时落盘
	router.MaxMultipartMemory = 8 << 20

	concurrencyLimiter := middleware.NewConcurrencyLimiter(cfg.MaxConcurrency)
	router.Use(concurrencyLimiter.Middleware())
	router.Use(middleware.Metrics())

	if deps.AuthRateLimiter == nil {
		deps.AuthRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	}
	if deps.APIRateLimiter == nil {
		deps.APIRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	}
	if deps.ImageRateLimiter == nil {
		deps.ImageRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitApiRPS*4, cfg.RateLimitApiBurst*4, cfg.RateLimitExpireTime)
	}
	cleanup := func() {
		deps.AuthRateLimiter.StopCleanup()
		deps.APIRateLimiter.StopCleanup()
		deps.ImageRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, deps)
	return router, cleanup
}

// NewRouter 创建路由，供测试与 StartServer 使用
func NewRouter(deps *RouterDependencies) (http.Handler, func()) {
	return setupRouter(deps)
}

// StartServer 创建 http.Server
func StartServer(deps *RouterDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
