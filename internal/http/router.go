package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/refyne-backend/internal/http/handlers"
	httpMW "github.com/yungbote/refyne-backend/internal/http/middleware"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	HealthHandler     *httpH.HealthHandler
	ProjectHandler    *httpH.ProjectHandler
	DocumentHandler   *httpH.DocumentHandler
	ProcessingHandler *httpH.ProcessingHandler
	RealtimeHandler   *httpH.RealtimeHandler
	ChunkHandler      *httpH.ChunkHandler
	TagHandler        *httpH.TagHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	api := r.Group("/api")
	{
		// Health
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			api.GET("/projects", cfg.ProjectHandler.ListProjects)
			api.POST("/projects", cfg.ProjectHandler.CreateProject)
			api.GET("/projects/:id", cfg.ProjectHandler.GetProject)
			api.PATCH("/projects/:id", cfg.ProjectHandler.UpdateProject)
			api.DELETE("/projects/:id", cfg.ProjectHandler.DeleteProject)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/projects/:id/documents", cfg.DocumentHandler.UploadDocuments)
			api.GET("/projects/:id/documents", cfg.DocumentHandler.ListDocuments)
			api.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
			api.DELETE("/documents/:id", cfg.DocumentHandler.DeleteDocument)
		}

		// Processing runs
		if cfg.ProcessingHandler != nil {
			api.POST("/projects/:id/process", cfg.ProcessingHandler.StartProcessing)
			api.GET("/projects/:id/process/status", cfg.ProcessingHandler.GetStatus)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/projects/:id/process/events", cfg.RealtimeHandler.ProjectEvents)
		}

		// Chunks
		if cfg.ChunkHandler != nil {
			api.GET("/projects/:id/chunks", cfg.ChunkHandler.ListChunks)
			api.GET("/projects/:id/chunks/categories", cfg.ChunkHandler.ListCategories)
			api.GET("/projects/:id/chunks/stats", cfg.ChunkHandler.GetStats)
			api.POST("/chunks/merge", cfg.ChunkHandler.MergeChunks)
			api.PATCH("/chunks/bulk", cfg.ChunkHandler.BulkUpdate)
			api.GET("/chunks/:id", cfg.ChunkHandler.GetChunk)
			api.PATCH("/chunks/:id", cfg.ChunkHandler.UpdateChunk)
			api.DELETE("/chunks/:id", cfg.ChunkHandler.DeleteChunk)
			api.GET("/chunks/:id/adjacent", cfg.ChunkHandler.GetAdjacent)
			api.POST("/chunks/:id/split", cfg.ChunkHandler.SplitChunk)
			api.POST("/chunks/:id/tags", cfg.ChunkHandler.AddTag)
			api.DELETE("/chunks/:id/tags/:tagId", cfg.ChunkHandler.RemoveTag)
		}

		// Tags
		if cfg.TagHandler != nil {
			api.GET("/projects/:id/tags", cfg.TagHandler.ListTags)
			api.POST("/projects/:id/tags", cfg.TagHandler.CreateTag)
		}
	}

	return r
}
