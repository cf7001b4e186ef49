package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/refyne-backend/internal/http/handlers"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Project    *httpH.ProjectHandler
	Document   *httpH.DocumentHandler
	Processing *httpH.ProcessingHandler
	Realtime   *httpH.RealtimeHandler
	Chunk      *httpH.ChunkHandler
	Tag        *httpH.TagHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Project: httpH.NewProjectHandler(log, services.Projects),
		Document: httpH.NewDocumentHandler(log, services.Documents, httpH.UploadLimits{
			MaxFiles:     cfg.Documents.MaxFiles,
			MaxFileBytes: cfg.Documents.MaxFileBytes,
		}),
		Processing: httpH.NewProcessingHandler(log, services.Processing),
		Realtime:   httpH.NewRealtimeHandler(log, hub, services.Processing),
		Chunk:      httpH.NewChunkHandler(log, services.Chunks),
		Tag:        httpH.NewTagHandler(log, services.Tags),
	}
}
