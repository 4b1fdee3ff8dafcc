package webhook

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/autoreply/common/logger"
	"basegraph.app/autoreply/internal/http/dto"
	"basegraph.app/autoreply/internal/mapper"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/service"
	"basegraph.app/autoreply/internal/signature"
)

const modeSubscribe = "subscribe"

// MetaWebhookHandler serves the Instagram/Messenger webhook subscription.
type MetaWebhookHandler struct {
	verifyToken string
	verifier    *signature.Verifier
	eventIngest service.EventIngestService
}

func NewMetaWebhookHandler(verifyToken string, verifier *signature.Verifier, eventIngest service.EventIngestService) *MetaWebhookHandler {
	return &MetaWebhookHandler{
		verifyToken: verifyToken,
		verifier:    verifier,
		eventIngest: eventIngest,
	}
}

// Verify answers Meta's subscription handshake by echoing hub.challenge.
func (h *MetaWebhookHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != modeSubscribe || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		slog.WarnContext(ctx, "webhook verification failed", "mode", mode)
		c.String(http.StatusForbidden, "Forbidden")
		return
	}

	slog.InfoContext(ctx, "webhook verified")
	c.String(http.StatusOK, challenge)
}

// HandleEvent accepts a webhook delivery. Anything past the signature check
// answers 200 so Meta does not retry deliveries that would fail the same way.
func (h *MetaWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		Component: "autoreply.webhook",
	})

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: dto.StatusError, Message: "failed to read request body"})
		return
	}

	if len(body) == 0 {
		slog.InfoContext(ctx, "empty webhook body")
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: dto.StatusOK})
		return
	}

	header := c.GetHeader(signature.HeaderName)
	if !h.verifier.Verify(body, header) {
		slog.WarnContext(ctx, "webhook signature verification failed",
			"signature_present", header != "")
		c.JSON(http.StatusUnauthorized, dto.WebhookResponse{
			Status:  dto.StatusError,
			Message: pipeline.ErrSignatureInvalid.Error(),
		})
		return
	}

	result, err := h.eventIngest.Ingest(ctx, body)
	if err != nil {
		if errors.Is(err, mapper.ErrMalformedPayload) {
			slog.WarnContext(ctx, "malformed webhook payload", "error", err)
		} else {
			slog.ErrorContext(ctx, "failed to ingest webhook", "error", err)
		}
		c.JSON(http.StatusOK, dto.WebhookResponse{Status: dto.StatusError, Message: err.Error()})
		return
	}

	slog.InfoContext(ctx, "webhook processed",
		"events", result.Events,
		"processed", result.Processed,
		"enqueued", result.Enqueued)

	c.JSON(http.StatusOK, dto.WebhookResponse{
		Status:    dto.StatusOK,
		Events:    result.Events,
		Processed: result.Processed,
		Enqueued:  result.Enqueued,
	})
}
