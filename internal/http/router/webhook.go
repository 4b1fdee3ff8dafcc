package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/autoreply/internal/http/handler/webhook"
)

func WebhookRouter(router *gin.RouterGroup, handler *webhook.MetaWebhookHandler) {
	router.GET("", handler.Verify)
	router.POST("", handler.HandleEvent)
}
