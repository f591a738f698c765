package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/handler"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/TIANLI0/RidgeTrace/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()

	utils.Logger.Info("starting RidgeTrace server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	// 确保上传目录存在
	if err := os.MkdirAll(cfg.Upload.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// 初始化存储，Redis 不可用时退回内存存储
	var store service.Store
	redisService := service.NewRedisService(&cfg.Redis)
	defer redisService.Close()
	if err := redisService.Ping(context.Background()); err != nil {
		utils.Logger.Warn("redis connection failed, using in-memory store", zap.Error(err))
		store = service.NewMemoryStore()
	} else {
		utils.Logger.Info("redis connected successfully")
		store = redisService
	}

	sessions := service.NewSessionService(&cfg.Auth)
	if cfg.Auth.JWTSecret == "change-me" {
		utils.Logger.Warn("using default jwt secret, set auth.jwt_secret in production")
	}

	gin.SetMode(cfg.Server.Mode)

	r := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Users:    service.NewUserService(store, sessions),
		Trace:    service.NewTraceService(&cfg.Trace),
		Build: handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			BuildID:   BuildID,
			GitCommit: GitCommit,
			GitBranch: GitBranch,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		utils.Logger.Error("failed to start server", zap.Error(err))
		return err
	}
	return nil
}
