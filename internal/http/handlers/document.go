package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

type UploadLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

type DocumentHandler struct {
	log    *logger.Logger
	docs   services.DocumentService
	limits UploadLimits
}

func NewDocumentHandler(log *logger.Logger, docs services.DocumentService, limits UploadLimits) *DocumentHandler {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 20
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = 10 << 20
	}
	return &DocumentHandler{
		log:    log.With("handler", "DocumentHandler"),
		docs:   docs,
		limits: limits,
	}
}

// POST /api/projects/:id/documents
func (h *DocumentHandler) UploadDocuments(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	// Room for every file at the limit plus multipart framing.
	maxBody := int64(h.limits.MaxFiles)*h.limits.MaxFileBytes + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "upload_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

	fileHeaders := c.Request.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_files", errors.New("no files uploaded"))
		return
	}
	if len(fileHeaders) > h.limits.MaxFiles {
		response.RespondError(c, http.StatusBadRequest, "too_many_files",
			fmt.Errorf("too many files: maximum is %d per upload", h.limits.MaxFiles))
		return
	}

	files := make([]services.UploadedFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > h.limits.MaxFileBytes {
			response.RespondError(c, http.StatusBadRequest, "file_too_large",
				fmt.Errorf("%s is too large: maximum size is %dMB", fh.Filename, h.limits.MaxFileBytes>>20))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "could_not_read_files", err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, h.limits.MaxFileBytes+1))
		_ = f.Close()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "could_not_read_files", err)
			return
		}
		files = append(files, services.UploadedFile{Filename: fh.Filename, Data: data})
	}

	docs, err := h.docs.Upload(c.Request.Context(), projectID, files)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.log.Info("Documents uploaded", "project_id", projectID, "count", len(docs))
	response.RespondCreated(c, docs)
}

// GET /api/projects/:id/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.docs.List(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, docs)
}

// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondMessage(c, "Document deleted")
}
