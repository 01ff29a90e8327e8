package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/photovault/docs"
	"github.com/yeisme/photovault/pkg/configs"
)

// RegisterSwaggerRoute 注册 Swagger 文档路由，仅在调试模式下启用.
func RegisterSwaggerRoute(r *gin.Engine, server configs.ServerConfig) {
	if !server.Debug {
		return
	}

	docs.SwaggerInfo.Host = server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
