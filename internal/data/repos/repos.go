package repos

import (
	"github.com/yungbote/refyne-backend/internal/data/repos/knowledge"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProjectRepo = knowledge.ProjectRepo
type DocumentRepo = knowledge.DocumentRepo
type ChunkRepo = knowledge.ChunkRepo
type TagRepo = knowledge.TagRepo

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return knowledge.NewProjectRepo(db, baseLog)
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return knowledge.NewDocumentRepo(db, baseLog)
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return knowledge.NewChunkRepo(db, baseLog)
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return knowledge.NewTagRepo(db, baseLog)
}
