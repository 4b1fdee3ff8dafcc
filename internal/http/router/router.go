package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/autoreply/internal/http/handler"
	"basegraph.app/autoreply/internal/http/handler/webhook"
	"basegraph.app/autoreply/internal/service"
	"basegraph.app/autoreply/internal/signature"
)

type RouterConfig struct {
	VerifyToken string
	AppSecret   string
}

func SetupRoutes(router *gin.Engine, eventIngest service.EventIngestService, cfg RouterConfig) {
	verifier := signature.NewVerifier(cfg.AppSecret)

	healthHandler := handler.NewHealthHandler(cfg.VerifyToken != "", verifier.Enabled())
	HealthRouter(router, healthHandler)

	webhookHandler := webhook.NewMetaWebhookHandler(cfg.VerifyToken, verifier, eventIngest)
	WebhookRouter(router.Group("/webhook"), webhookHandler)
}
