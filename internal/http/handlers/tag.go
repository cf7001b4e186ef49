package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

type TagHandler struct {
	log  *logger.Logger
	tags services.TagService
}

func NewTagHandler(log *logger.Logger, tags services.TagService) *TagHandler {
	return &TagHandler{
		log:  log.With("handler", "TagHandler"),
		tags: tags,
	}
}

// GET /api/projects/:id/tags
func (h *TagHandler) ListTags(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	tags, err := h.tags.List(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, tags)
}

// POST /api/projects/:id/tags responds 201 for a new tag and 200 when the
// normalized name already existed.
func (h *TagHandler) CreateTag(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req tagNameRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, created, err := h.tags.Create(c.Request.Context(), projectID, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if created {
		response.RespondCreated(c, tag)
		return
	}
	response.RespondOK(c, tag)
}
