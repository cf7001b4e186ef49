package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

type ProcessingHandler struct {
	log        *logger.Logger
	processing services.ProcessingService
}

func NewProcessingHandler(log *logger.Logger, processing services.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{
		log:        log.With("handler", "ProcessingHandler"),
		processing: processing,
	}
}

// POST /api/projects/:id/process
func (h *ProcessingHandler) StartProcessing(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	total, err := h.processing.StartRun(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Processing started", "total": total})
}

// GET /api/projects/:id/process/status
func (h *ProcessingHandler) GetStatus(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	response.RespondOK(c, h.processing.GetRunStatus(projectID))
}
