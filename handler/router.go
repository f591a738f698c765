package handler

import (
	"net/http"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/middleware"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/gin-gonic/gin"
)

// BuildInfo 版本信息
type BuildInfo struct {
	Version   string
	BuildTime string
	BuildID   string
	GitCommit string
	GitBranch string
}

// Deps 路由依赖
type Deps struct {
	Config   *config.Config
	Store    service.Store
	Sessions *service.SessionService
	Users    *service.UserService
	Trace    *service.TraceService
	Build    BuildInfo
}

// NewRouter 创建路由
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = d.Config.Upload.MaxSize

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": d.Build.Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    d.Build.Version,
			"build_time": d.Build.BuildTime,
			"build_id":   d.Build.BuildID,
			"git_commit": d.Build.GitCommit,
			"git_branch": d.Build.GitBranch,
		})
	})

	authHandler := NewAuthHandler(d.Users)
	traceHandler := NewTraceHandler(d.Config, d.Store, d.Store, d.Trace)
	scanHandler := NewScanHandler(d.Store)
	requireAuth := middleware.Auth(d.Sessions)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", requireAuth, authHandler.Me)

		api.POST("/trace", requireAuth, traceHandler.Trace)
		api.GET("/trace/:md5", requireAuth, traceHandler.Get)
		api.GET("/trace/:md5/image", requireAuth, traceHandler.GetImage)

		api.GET("/scans", requireAuth, scanHandler.List)
		api.DELETE("/scans/:id", requireAuth, scanHandler.Delete)
	}

	return r
}
