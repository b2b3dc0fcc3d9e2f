package main

import (
	"log"

	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/database"
	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/logger"
	"github.com/blues/ims/internal/router"
	"github.com/blues/ims/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化缓存（未配置时为nil，降级为直查数据库）
	cacheClient := cache.New(cfg.Redis)
	defer cacheClient.Close()

	// 初始化事件分发器
	events, err := event.NewDispatcher(db, cfg.Policy.EventPoolSize,
		event.NewAuditProcessor(),
		event.NewCacheProcessor(cacheClient),
	)
	if err != nil {
		logger.Fatal("Failed to initialize event dispatcher: %v", err)
	}
	defer events.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, cacheClient, events, cfg)

	// 启动定时任务
	manager := scheduler.Start(db, cacheClient, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
