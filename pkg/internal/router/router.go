// Package router 管理路由配置，只负责将路径和处理器绑定到 gin 引擎.
// 处理器的实现由 pkg/internal/handle 提供并由应用层注入.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/internal/handle"
	"github.com/yeisme/photovault/pkg/scheduler"
)

// AssetHandlers 定义图片资产接口的处理器集合.
type AssetHandlers interface {
	Ping() gin.HandlerFunc
	Users() gin.HandlerFunc
	Images() gin.HandlerFunc
	Upload() gin.HandlerFunc
	Download() gin.HandlerFunc
	Labels() gin.HandlerFunc
	Search() gin.HandlerFunc
	DeleteAll() gin.HandlerFunc
	Readyz() gin.HandlerFunc
}

// Register 将资产接口绑定到传入的路由组：
//
//	GET    /ping                      -> Ping
//	GET    /users                     -> Users
//	GET    /images[?userid=]          -> Images
//	POST   /image/:userid             -> Upload
//	GET    /image/:assetid            -> Download
//	GET    /image_labels/:assetid     -> Labels
//	GET    /images_with_label/:label  -> Search
//	DELETE /images                    -> DeleteAll
func Register(g *gin.RouterGroup, h AssetHandlers) {
	g.GET("/ping", h.Ping())
	g.GET("/users", h.Users())
	g.GET("/images", h.Images())
	g.DELETE("/images", h.DeleteAll())

	imageRoutes := g.Group("/image")
	{
		imageRoutes.POST("/:userid", h.Upload())
		imageRoutes.GET("/:assetid", h.Download())
	}

	g.GET("/image_labels/:assetid", h.Labels())
	g.GET("/images_with_label/:label", h.Search())
}

// RegisterHealthCheckRoutes 注册存活与就绪检查路由.
func RegisterHealthCheckRoutes(g *gin.RouterGroup, h AssetHandlers) {
	g.GET("/healthz", handle.Healthz)
	g.GET("/readyz", h.Readyz())
}

// RegisterSchedulerRoutes 注册定时任务状态路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup, sched *scheduler.Scheduler) {
	g.GET("/jobs", handle.SchedulerJobs(sched))
}
