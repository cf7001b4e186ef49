package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/observability"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type ProcessingService interface {
	// StartRun validates and registers a run, then processes the project's
	// extracted documents on a background goroutine. It returns the number of
	// documents queued.
	StartRun(ctx context.Context, projectID uuid.UUID) (int, error)
	GetRunStatus(projectID uuid.UUID) types.ProcessingRun
	// Close cancels in-flight runs and waits for their goroutines to exit.
	Close()
}

type processingService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
	chunks   repos.ChunkRepo
	tags     repos.TagRepo
	chunker  Chunker
	registry *RunRegistry
	notifier RunNotifier

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewProcessingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	docs repos.DocumentRepo,
	chunks repos.ChunkRepo,
	tags repos.TagRepo,
	chunker Chunker,
	registry *RunRegistry,
	notifier RunNotifier,
) ProcessingService {
	if notifier == nil {
		notifier = nopRunNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &processingService{
		db:       db,
		log:      baseLog.With("service", "ProcessingService"),
		projects: projects,
		docs:     docs,
		chunks:   chunks,
		tags:     tags,
		chunker:  chunker,
		registry: registry,
		notifier: notifier,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

func (s *processingService) StartRun(ctx context.Context, projectID uuid.UUID) (int, error) {
	ctx = ctxutil.Default(ctx)
	dbc := dbctx.Context{Ctx: ctx}

	project, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return 0, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return 0, fmt.Errorf("project %s: %w", projectID, perrors.ErrNotFound)
	}
	if s.registry.Active(projectID) {
		return 0, perrors.ErrConflict
	}

	docs, err := s.docs.ListByProjectAndStatus(dbc, projectID, types.DocumentStatusExtracted)
	if err != nil {
		return 0, fmt.Errorf("list extracted documents: %w", err)
	}
	if len(docs) == 0 {
		return 0, perrors.ErrNoWork
	}

	if s.baseCtx.Err() != nil {
		return 0, fmt.Errorf("processing service closed: %w", s.baseCtx.Err())
	}
	run, err := s.registry.Begin(projectID, len(docs))
	if err != nil {
		return 0, err
	}
	s.notifier.RunStarted(run)
	s.log.With(ctxutil.LogArgs(ctx)...).Info("Processing run started", "project_id", projectID, "total", len(docs))

	// The run outlives the request; it is bound to the service instead.
	runCtx, cancel := context.WithCancel(s.baseCtx)
	s.wg.Add(1)
	go s.run(runCtx, cancel, projectID, docs)

	return len(docs), nil
}

func (s *processingService) GetRunStatus(projectID uuid.UUID) types.ProcessingRun {
	return s.registry.Get(projectID)
}

func (s *processingService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *processingService) run(ctx context.Context, cancel context.CancelFunc, projectID uuid.UUID, docs []*types.Document) {
	defer s.wg.Done()
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, "processing.run")
	span.SetAttributes(
		attribute.String("project.id", projectID.String()),
		attribute.Int("run.total", len(docs)),
	)
	defer span.End()

	defer func() {
		final, _ := s.registry.Finish(projectID)
		s.notifier.RunDone(final)
		s.log.Info("Processing run finished",
			"project_id", projectID,
			"completed", final.Completed,
			"errors", len(final.Errors),
		)
	}()
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			s.log.Error("Processing run crashed", "project_id", projectID, "panic", msg, "stack", string(debug.Stack()))
			span.SetStatus(codes.Error, msg)
			s.registry.Update(projectID, func(run *types.ProcessingRun) {
				run.Errors = append(run.Errors, types.RunError{Error: msg})
			})
		}
	}()

	for _, doc := range docs {
		s.processOne(ctx, projectID, doc)
	}
}

func (s *processingService) processOne(ctx context.Context, projectID uuid.UUID, doc *types.Document) {
	filename := doc.OriginalFilename
	snap, _ := s.registry.Update(projectID, func(run *types.ProcessingRun) {
		name := filename
		run.CurrentDocument = &name
	})
	s.notifier.RunProgress(snap)

	ctx, span := observability.Tracer().Start(ctx, "processing.document")
	span.SetAttributes(
		attribute.String("document.id", doc.ID.String()),
		attribute.String("document.filename", filename),
	)
	defer span.End()

	err := s.processDocument(ctx, projectID, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("Document processing failed", "document_id", doc.ID, "filename", filename, "error", err)

		// Record the failure even when the run itself was cancelled.
		failCtx := context.WithoutCancel(ctx)
		if terr := s.docs.TransitionStatus(dbctx.Context{Ctx: failCtx}, doc.ID, types.DocumentStatusError, map[string]interface{}{
			"error_message": err.Error(),
		}); terr != nil && !errors.Is(terr, perrors.ErrInvalidTransition) {
			s.log.Warn("Failed to mark document as error", "document_id", doc.ID, "error", terr)
		}
	}

	snap, _ = s.registry.Update(projectID, func(run *types.ProcessingRun) {
		if err != nil {
			id := doc.ID
			name := filename
			run.Errors = append(run.Errors, types.RunError{DocumentID: &id, Filename: &name, Error: err.Error()})
		}
		run.Completed++
	})
	s.notifier.RunProgress(snap)
}

// processDocument confines a panic to the document that raised it, so the rest
// of the queue still runs.
func (s *processingService) processDocument(ctx context.Context, projectID uuid.UUID, doc *types.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Document processing panicked",
				"document_id", doc.ID,
				"filename", doc.OriginalFilename,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.decomposeAndStore(ctx, projectID, doc)
}

func (s *processingService) decomposeAndStore(ctx context.Context, projectID uuid.UUID, doc *types.Document) error {
	if err := s.docs.TransitionStatus(dbctx.Context{Ctx: ctx}, doc.ID, types.DocumentStatusProcessing, nil); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	rawText := ""
	if doc.RawText != nil {
		rawText = *doc.RawText
	}
	result, err := s.chunker.Decompose(ctx, rawText, doc.OriginalFilename)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		return s.storeDecomposition(dbc, projectID, doc, result)
	})
}

// storeDecomposition writes every chunk and tag link for doc and marks it
// processed. Chunks are numbered densely from 0 in decomposition order.
func (s *processingService) storeDecomposition(dbc dbctx.Context, projectID uuid.UUID, doc *types.Document, result *types.Decomposition) error {
	rows := make([]*types.Chunk, 0, len(result.Chunks))
	for i, dc := range result.Chunks {
		rows = append(rows, &types.Chunk{
			DocumentID: doc.ID,
			ProjectID:  projectID,
			Title:      dc.Title,
			Content:    dc.Content,
			Summary:    dc.Summary,
			Category:   dc.Category,
			SortOrder:  i,
			Status:     types.ChunkStatusPendingReview,
		})
	}
	created, err := s.chunks.Create(dbc, rows)
	if err != nil {
		return fmt.Errorf("create chunks: %w", err)
	}

	tagIDs := map[string]uuid.UUID{}
	for i, dc := range result.Chunks {
		ids := make([]uuid.UUID, 0, len(dc.Tags))
		for _, raw := range dc.Tags {
			name := types.NormalizeTagName(raw)
			if name == "" {
				continue
			}
			id, ok := tagIDs[name]
			if !ok {
				tag, _, err := s.tags.FindOrCreate(dbc, projectID, name)
				if err != nil {
					return fmt.Errorf("find or create tag %q: %w", name, err)
				}
				id = tag.ID
				tagIDs[name] = id
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		if err := s.tags.LinkToChunk(dbc, created[i].ID, ids...); err != nil {
			return fmt.Errorf("link tags: %w", err)
		}
	}

	if err := s.docs.TransitionStatus(dbc, doc.ID, types.DocumentStatusProcessed, nil); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}
