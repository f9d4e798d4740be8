// api/handlers/webhook_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"example.com/logistics/services/tracking/api/middleware"
	"example.com/logistics/services/tracking/internal/payload"
	"example.com/logistics/services/tracking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebhookHandler handles carrier status webhook requests
type WebhookHandler struct {
	service service.Service
	timeout time.Duration
	log     *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(svc service.Service, timeout time.Duration, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		timeout: timeout,
		log:     log,
	}
}

// ReceiveStatus handles one carrier status webhook batch. The raw body
// is read up front so the audit trail keeps the exact bytes the
// carrier sent, including payloads that fail to decode.
func (h *WebhookHandler) ReceiveStatus(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.WithError(err).Warn("Failed to read webhook body")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "incorrect payload",
		})
		return
	}

	meta := service.RequestMeta{
		RequestID:  requestID,
		ClientIP:   c.ClientIP(),
		ClientID:   c.GetString(string(middleware.ClientIDContextKey)),
		RawPayload: body,
	}

	var req payload.StatusTrackingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "incorrect payload",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result := h.service.ProcessStatusBatch(ctx, &req, meta)

	switch result.Status {
	case service.BatchAccepted:
		resp := gin.H{
			"success":   true,
			"message":   result.Message,
			"processed": len(result.Processed),
			"shipments": result.Processed,
		}
		if len(result.Errors) > 0 {
			resp["errors"] = result.Errors
		}
		c.JSON(http.StatusOK, resp)
	case service.BatchTimedOut:
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"success": false,
			"message": "Request timeout",
		})
	default:
		resp := gin.H{
			"success": false,
			"message": result.Message,
		}
		if len(result.Errors) > 0 {
			resp["errors"] = result.Errors
		}
		c.JSON(result.HTTPStatus(), resp)
	}
}
