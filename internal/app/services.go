package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/ingestion/extractor"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
	"github.com/yungbote/refyne-backend/internal/services"
)

type Services struct {
	Registry   *services.RunRegistry
	Chunker    services.Chunker
	Projects   services.ProjectService
	Documents  services.DocumentService
	Processing services.ProcessingService
	Chunks     services.ChunkService
	Tags       services.TagService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, hub *realtime.SSEHub) Services {
	log.Info("Wiring services...")

	local := &services.HubEmitter{Hub: hub}
	var emitter services.EventEmitter = local
	if clients.RunBus != nil {
		emitter = &services.BusEmitter{Bus: clients.RunBus, Local: local, Log: log}
	}

	registry := services.NewRunRegistry(nil, cfg.RunRetention)
	chunker := services.NewChunker(log, clients.Completion, services.ChunkerConfig{
		Prompt:         services.LoadChunkingPrompt(log, cfg.ChunkingPromptPath),
		AttemptTimeout: cfg.AIRequestTimeout,
	})

	return Services{
		Registry: registry,
		Chunker:  chunker,
		Projects: services.NewProjectService(log, reposet.Project, reposet.Document, clients.ObjectStore, registry),
		Documents: services.NewDocumentService(
			db, log, reposet.Project, reposet.Document, clients.ObjectStore, extractor.New(log), cfg.Documents,
		),
		Processing: services.NewProcessingService(
			db, log, reposet.Project, reposet.Document, reposet.Chunk, reposet.Tag,
			chunker, registry, services.NewRunNotifier(emitter),
		),
		Chunks: services.NewChunkService(db, log, reposet.Chunk, reposet.Tag),
		Tags:   services.NewTagService(log, reposet.Project, reposet.Tag),
	}
}

// Close stops background work owned by the services.
func (s *Services) Close() {
	if s.Processing != nil {
		s.Processing.Close()
	}
	if s.Documents != nil {
		s.Documents.Close()
	}
}
