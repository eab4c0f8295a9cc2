package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/app"
)

// SyncService runs and reports sync cycles.
type SyncService interface {
	Sync(ctx context.Context) app.SyncResult
	SyncStatus(ctx context.Context) app.SyncStatus
}

// SyncHandler handles the on-demand sync endpoints.
type SyncHandler struct {
	service SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Sync handles POST /api/v1/sync. The body is the cycle result either way:
// 200 when it applied, 502 when the remote source failed it.
func (h *SyncHandler) Sync(c *gin.Context) {
	result := h.service.Sync(c.Request.Context())

	status := http.StatusOK
	if !result.Applied() {
		status = dto.HTTPStatusFromCode(dto.ErrorCodeSyncFailed)
	}

	c.JSON(status, dto.NewSyncResultResponse(result))
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSyncStatusResponse(h.service.SyncStatus(c.Request.Context())))
}

// RegisterReadRoutes registers GET /sync/status.
func (h *SyncHandler) RegisterReadRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync/status", h.Status)
}

// RegisterAdminRoutes registers POST /sync.
func (h *SyncHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Sync)
}
