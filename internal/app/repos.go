package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type Repos struct {
	Project  repos.ProjectRepo
	Document repos.DocumentRepo
	Chunk    repos.ChunkRepo
	Tag      repos.TagRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:  repos.NewProjectRepo(db, log),
		Document: repos.NewDocumentRepo(db, log),
		Chunk:    repos.NewChunkRepo(db, log),
		Tag:      repos.NewTagRepo(db, log),
	}
}
