package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

const (
	bulkActionApproveCategory = "approve_category"
	bulkActionDeleteRejected  = "delete_rejected"
)

type ChunkHandler struct {
	log    *logger.Logger
	chunks services.ChunkService
}

func NewChunkHandler(log *logger.Logger, chunks services.ChunkService) *ChunkHandler {
	return &ChunkHandler{
		log:    log.With("handler", "ChunkHandler"),
		chunks: chunks,
	}
}

type updateChunkRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Summary  *string `json:"summary"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

type splitChunkRequest struct {
	Position *int `json:"position"`
}

type mergeChunksRequest struct {
	ChunkIDs []uuid.UUID `json:"chunkIds"`
}

// bulkChunksRequest covers the three bulk shapes: a category approval, a
// purge of rejected chunks, or an explicit id list with a target status.
type bulkChunksRequest struct {
	Action    string      `json:"action"`
	ProjectID *uuid.UUID  `json:"projectId"`
	Category  string      `json:"category"`
	ChunkIDs  []uuid.UUID `json:"chunkIds"`
	Status    string      `json:"status"`
}

type tagNameRequest struct {
	Name string `json:"name"`
}

// GET /api/projects/:id/chunks?category=&status=&search=&tag=
func (h *ChunkHandler) ListChunks(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	chunks, err := h.chunks.List(c.Request.Context(), projectID, types.ChunkFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, chunks)
}

// GET /api/projects/:id/chunks/categories
func (h *ChunkHandler) ListCategories(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	categories, err := h.chunks.Categories(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, categories)
}

// GET /api/projects/:id/chunks/stats
func (h *ChunkHandler) GetStats(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.chunks.Stats(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /api/chunks/:id
func (h *ChunkHandler) GetChunk(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	chunk, err := h.chunks.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, chunk)
}

// PATCH /api/chunks/:id
func (h *ChunkHandler) UpdateChunk(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateChunkRequest
	if !bindJSON(c, &req) {
		return
	}
	chunk, err := h.chunks.Update(c.Request.Context(), id, types.ChunkUpdate{
		Title:    req.Title,
		Content:  req.Content,
		Summary:  req.Summary,
		Category: req.Category,
		Status:   req.Status,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, chunk)
}

// DELETE /api/chunks/:id
func (h *ChunkHandler) DeleteChunk(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.chunks.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondMessage(c, "Chunk deleted")
}

// GET /api/chunks/:id/adjacent
func (h *ChunkHandler) GetAdjacent(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	adj, err := h.chunks.Adjacent(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, adj)
}

// POST /api/chunks/:id/split
func (h *ChunkHandler) SplitChunk(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req splitChunkRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Position == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_position", errors.New("position is required"))
		return
	}
	first, second, err := h.chunks.Split(c.Request.Context(), id, *req.Position)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"first": first, "second": second})
}

// POST /api/chunks/merge
func (h *ChunkHandler) MergeChunks(c *gin.Context) {
	var req mergeChunksRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.ChunkIDs) != 2 {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", errors.New("provide exactly 2 chunk ids to merge"))
		return
	}
	merged, err := h.chunks.Merge(c.Request.Context(), req.ChunkIDs[0], req.ChunkIDs[1])
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, merged)
}

// PATCH /api/chunks/bulk
func (h *ChunkHandler) BulkUpdate(c *gin.Context) {
	var req bulkChunksRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	switch {
	case req.Action == bulkActionApproveCategory && req.ProjectID != nil && req.Category != "":
		n, err := h.chunks.ApproveCategory(ctx, *req.ProjectID, req.Category)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": fmt.Sprintf("All chunks in %q approved", req.Category), "count": n})
	case req.Action == bulkActionDeleteRejected && req.ProjectID != nil:
		n, err := h.chunks.DeleteRejected(ctx, *req.ProjectID)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": fmt.Sprintf("%d rejected chunks deleted", n), "count": n})
	case req.Action == "" && len(req.ChunkIDs) > 0 && req.Status != "":
		n, err := h.chunks.BulkUpdateStatus(ctx, req.ChunkIDs, req.Status)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": fmt.Sprintf("%d chunks updated", n), "count": n})
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_bulk_action", errors.New("invalid bulk action"))
	}
}

// POST /api/chunks/:id/tags
func (h *ChunkHandler) AddTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req tagNameRequest
	if !bindJSON(c, &req) {
		return
	}
	chunk, err := h.chunks.AddTag(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, chunk)
}

// DELETE /api/chunks/:id/tags/:tagId
func (h *ChunkHandler) RemoveTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := uuidParam(c, "tagId")
	if !ok {
		return
	}
	chunk, err := h.chunks.RemoveTag(c.Request.Context(), id, tagID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, chunk)
}
