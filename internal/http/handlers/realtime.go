package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
	"github.com/yungbote/refyne-backend/internal/services"
)

type RealtimeHandler struct {
	log        *logger.Logger
	hub        *realtime.SSEHub
	processing services.ProcessingService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, processing services.ProcessingService) *RealtimeHandler {
	return &RealtimeHandler{
		log:        log.With("handler", "RealtimeHandler"),
		hub:        hub,
		processing: processing,
	}
}

// GET /api/projects/:id/process/events
//
// Streams the project's run updates. The first event is a RunProgress
// snapshot of the current status so a reconnecting client never waits for
// the next transition.
func (h *RealtimeHandler) ProjectEvents(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	channel := realtime.ProjectChannel(projectID)

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, channel)
	defer h.hub.CloseClient(client)

	if h.processing != nil {
		run := h.processing.GetRunStatus(projectID)
		select {
		case client.Outbound <- realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventRunProgress,
			Data:    map[string]any{"projectId": projectID, "run": run},
		}:
		default:
		}
	}

	h.log.Debug("SSE stream open", "project_id", projectID, "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Debug("SSE stream closed", "project_id", projectID, "client_id", client.ID)
}
