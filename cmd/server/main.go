package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"priority-delivery/config"
	"priority-delivery/internal/api/handler"
	"priority-delivery/internal/api/middleware"
	"priority-delivery/internal/api/router"
	"priority-delivery/internal/repository"
	"priority-delivery/internal/service"
	"priority-delivery/pkg/authz"
	"priority-delivery/pkg/database"
	"priority-delivery/pkg/geo"
	"priority-delivery/pkg/jwt"
	applogger "priority-delivery/pkg/logger"
	"priority-delivery/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级为进程内存储，不中断启动）
	var (
		otpStore  service.OTPStore
		blacklist service.TokenBlacklist
		limiter   middleware.Limiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，OTP 与 Token 黑名单降级为内存存储，登录限流不可用", zap.Error(err))
		mem := service.NewMemoryStore()
		otpStore, blacklist = mem, mem
	} else {
		otpStore, blacklist, limiter = rdb, rdb, rdb
	}

	// 5. JWT、权限、地名解析
	jwtMgr := jwt.NewManager(&cfg.Auth)
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logger.Fatal("初始化权限策略失败", zap.Error(err))
	}
	lookup := geo.NewStaticLookup(cfg.Geo.Locations)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, otpStore, blacklist, lookup, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, router.Deps{
		JWT:       jwtMgr,
		Enforcer:  enforcer,
		Blacklist: blacklist,
		Limiter:   limiter,
		Logger:    logger,
	})

	// 8. 后台定时推进配送状态
	tickerCtx, stopTicker := context.WithCancel(context.Background())
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		service.RunStatusTicker(tickerCtx, svc.DeliveryRequest, cfg.Lifecycle.AdvanceInterval, logger)
	}()

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	stopTicker()
	<-tickerDone

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
