// Package handler contains the gin HTTP handlers for the trigger API.
package handler

import (
	"context"
	"net/http"

	"github.com/ecommerce/etl/internal/application/trigger"
	"github.com/ecommerce/etl/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TriggerService is the application service behind the trigger endpoint.
type TriggerService interface {
	HandleUploadEvent(ctx context.Context) (*trigger.Status, error)
}

// TriggerHandler handles object-upload notifications
type TriggerHandler struct {
	service TriggerService
	logger  *zap.Logger
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(service TriggerService, logger *zap.Logger) *TriggerHandler {
	return &TriggerHandler{
		service: service,
		logger:  logger,
	}
}

// UploadEventRequest is the notification body sent when an object lands in
// the bucket.
type UploadEventRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	Key    string `json:"key" binding:"required"`
}

// HandleUploadEvent processes one upload notification and reports whether the
// pipeline was triggered, already running, or still waiting for inputs.
func (h *TriggerHandler) HandleUploadEvent(c *gin.Context) {
	var req UploadEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeInvalidJSON),
			dto.NewErrorResponse(dto.ErrCodeInvalidJSON, err.Error()))
		return
	}

	h.logger.Info("Received upload event",
		zap.String("bucket", req.Bucket),
		zap.String("key", req.Key),
	)

	status, err := h.service.HandleUploadEvent(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to handle upload event", zap.Error(err))
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeInternal),
			dto.NewErrorResponse(dto.ErrCodeInternal, "failed to handle upload event"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(status))
}

// RegisterRoutes registers the trigger routes on the given group.
func (h *TriggerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pipeline/trigger", h.HandleUploadEvent)
}
