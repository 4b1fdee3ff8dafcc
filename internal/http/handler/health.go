package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/autoreply/internal/http/dto"
)

type HealthHandler struct {
	verifyTokenSet bool
	appSecretSet   bool
}

func NewHealthHandler(verifyTokenSet, appSecretSet bool) *HealthHandler {
	return &HealthHandler{
		verifyTokenSet: verifyTokenSet,
		appSecretSet:   appSecretSet,
	}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Instagram DM & Comment Auto-Reply Webhook is running"})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TestEcho lets operators check connectivity without triggering replies.
func (h *HealthHandler) TestEcho(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Request.Method == http.MethodGet {
		slog.InfoContext(ctx, "test endpoint called")
		c.JSON(http.StatusOK, dto.TestEchoResponse{Status: "test successful"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	slog.InfoContext(ctx, "test webhook received",
		"bytes", len(body),
		"content_type", c.ContentType())
	c.JSON(http.StatusOK, dto.TestEchoResponse{Status: "test received", Bytes: len(body)})
}

// Debug reports which secrets are configured, never their values.
func (h *HealthHandler) Debug(c *gin.Context) {
	c.JSON(http.StatusOK, dto.DebugResponse{
		Status:         "debug",
		VerifyTokenSet: h.verifyTokenSet,
		AppSecretSet:   h.appSecretSet,
	})
}
