package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/pkg/pointers"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

type ProjectService interface {
	Create(ctx context.Context, name string, description *string) (*types.Project, error)
	List(ctx context.Context) ([]*types.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Project, error)
	Update(ctx context.Context, id uuid.UUID, update ProjectUpdate) (*types.Project, error)
	// Delete removes the project with its documents, chunks, tags and stored files.
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
	store    ObjectStore
	registry *RunRegistry
}

func NewProjectService(baseLog *logger.Logger, projects repos.ProjectRepo, docs repos.DocumentRepo, store ObjectStore, registry *RunRegistry) ProjectService {
	return &projectService{
		log:      baseLog.With("service", "ProjectService"),
		projects: projects,
		docs:     docs,
		store:    store,
		registry: registry,
	}
}

func (s *projectService) Create(ctx context.Context, name string, description *string) (*types.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", perrors.ErrInvalidArgument)
	}
	p := &types.Project{Name: name, Description: pointers.NonBlank(description)}
	created, err := s.projects.Create(dbctx.Context{Ctx: ctxutil.Default(ctx)}, p)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.log.Info("Project created", "project_id", created.ID)
	return created, nil
}

func (s *projectService) List(ctx context.Context) ([]*types.Project, error) {
	return s.projects.List(dbctx.Context{Ctx: ctxutil.Default(ctx)})
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.GetByID(dbctx.Context{Ctx: ctxutil.Default(ctx)}, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	return p, nil
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, update ProjectUpdate) (*types.Project, error) {
	ctx = ctxutil.Default(ctx)
	fields := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("project name is required: %w", perrors.ErrInvalidArgument)
		}
		fields["name"] = name
	}
	if update.Description != nil {
		fields["description"] = pointers.NonBlank(update.Description)
	}
	if update.Status != nil {
		if !types.IsValidProjectStatus(*update.Status) {
			return nil, fmt.Errorf("status %q: %w", *update.Status, perrors.ErrInvalidArgument)
		}
		fields["status"] = *update.Status
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.projects.UpdateFields(dbctx.Context{Ctx: ctx}, id, fields); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = ctxutil.Default(ctx)
	if s.registry != nil && s.registry.Active(id) {
		return perrors.ErrConflict
	}
	docs, err := s.docs.ListByProject(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	ok, err := s.projects.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if !ok {
		return fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	if s.store != nil {
		for _, d := range docs {
			if err := s.store.Delete(ctx, d.StorageKey); err != nil {
				s.log.Warn("Failed to remove stored object", "storage_key", d.StorageKey, "error", err)
			}
		}
	}
	s.log.Info("Project deleted", "project_id", id, "documents", len(docs))
	return nil
}
