package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type TagService interface {
	List(ctx context.Context, projectID uuid.UUID) ([]*types.Tag, error)
	// Create returns the project's tag with the normalized name, creating it if
	// needed. created is false when the tag already existed.
	Create(ctx context.Context, projectID uuid.UUID, name string) (tag *types.Tag, created bool, err error)
}

type tagService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	tags     repos.TagRepo
}

func NewTagService(baseLog *logger.Logger, projects repos.ProjectRepo, tags repos.TagRepo) TagService {
	return &tagService{
		log:      baseLog.With("service", "TagService"),
		projects: projects,
		tags:     tags,
	}
}

func (s *tagService) List(ctx context.Context, projectID uuid.UUID) ([]*types.Tag, error) {
	return s.tags.ListByProject(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID)
}

func (s *tagService) Create(ctx context.Context, projectID uuid.UUID, name string) (*types.Tag, bool, error) {
	if types.NormalizeTagName(name) == "" {
		return nil, false, fmt.Errorf("tag name is required: %w", perrors.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	p, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, false, fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return nil, false, fmt.Errorf("project %s: %w", projectID, perrors.ErrNotFound)
	}
	tag, created, err := s.tags.FindOrCreate(dbc, projectID, name)
	if err != nil {
		return nil, false, fmt.Errorf("find or create tag: %w", err)
	}
	return tag, created, nil
}
