package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/autoreply/internal/http/handler"
)

func HealthRouter(router *gin.Engine, handler *handler.HealthHandler) {
	router.GET("/", handler.Root)
	router.GET("/health", handler.Health)
	router.GET("/test", handler.TestEcho)
	router.POST("/test", handler.TestEcho)
	router.GET("/debug", handler.Debug)
}
