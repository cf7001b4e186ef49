package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

type ProjectHandler struct {
	log      *logger.Logger
	projects services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		log:      log.With("handler", "ProjectHandler"),
		projects: projects,
	}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, projects)
}

// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, project)
}

// GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, project)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), id, services.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, project)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondMessage(c, "Project deleted")
}
