package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/ingestion/extractor"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type UploadedFile struct {
	Filename string
	Data     []byte
}

type DocumentService interface {
	// Upload stores every file, creates one uploaded document per file and
	// starts text extraction in the background.
	Upload(ctx context.Context, projectID uuid.UUID, files []UploadedFile) ([]*types.Document, error)
	List(ctx context.Context, projectID uuid.UUID) ([]*types.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Extract runs extraction for one uploaded document synchronously.
	Extract(ctx context.Context, doc *types.Document, data []byte) error
	Close()
}

type DocumentConfig struct {
	MaxFiles           int
	MaxFileBytes       int64
	ExtractConcurrency int
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	projects  repos.ProjectRepo
	docs      repos.DocumentRepo
	store     ObjectStore
	extractor *extractor.Extractor
	cfg       DocumentConfig

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	docs repos.DocumentRepo,
	store ObjectStore,
	ext *extractor.Extractor,
	cfg DocumentConfig,
) DocumentService {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 20
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10 << 20
	}
	if cfg.ExtractConcurrency <= 0 {
		cfg.ExtractConcurrency = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &documentService{
		db:        db,
		log:       baseLog.With("service", "DocumentService"),
		projects:  projects,
		docs:      docs,
		store:     store,
		extractor: ext,
		cfg:       cfg,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func (s *documentService) Upload(ctx context.Context, projectID uuid.UUID, files []UploadedFile) ([]*types.Document, error) {
	ctx = ctxutil.Default(ctx)
	if len(files) == 0 {
		return nil, fmt.Errorf("no files uploaded: %w", perrors.ErrInvalidArgument)
	}
	if len(files) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("at most %d files per upload: %w", s.cfg.MaxFiles, perrors.ErrInvalidArgument)
	}

	docs := make([]*types.Document, 0, len(files))
	for _, f := range files {
		name := filepath.Base(strings.TrimSpace(f.Filename))
		fileType, ok := extractor.FileType(name)
		if !ok {
			return nil, &perrors.ExtractionError{Filename: name, UnsupportedType: strings.ToLower(filepath.Ext(name))}
		}
		if int64(len(f.Data)) > s.cfg.MaxFileBytes {
			return nil, fmt.Errorf("%s exceeds %d bytes: %w", name, s.cfg.MaxFileBytes, perrors.ErrInvalidArgument)
		}
		id := uuid.New()
		docs = append(docs, &types.Document{
			ID:               id,
			ProjectID:        projectID,
			OriginalFilename: name,
			FileType:         fileType,
			StorageKey:       id.String() + strings.ToLower(filepath.Ext(name)),
			SizeBytes:        int64(len(f.Data)),
			Status:           types.DocumentStatusUploaded,
		})
	}

	project, err := s.projects.GetByID(dbctx.Context{Ctx: ctx}, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, perrors.ErrNotFound)
	}

	for i, d := range docs {
		if err := s.store.Upload(ctx, d.StorageKey, bytes.NewReader(files[i].Data)); err != nil {
			s.log.Error("Upload to object store failed", "storage_key", d.StorageKey, "error", err)
			s.removeObjects(ctx, docs[:i])
			return nil, fmt.Errorf("store %s: %w", d.OriginalFilename, err)
		}
	}
	if _, err := s.docs.Create(dbctx.Context{Ctx: ctx}, docs); err != nil {
		s.removeObjects(ctx, docs)
		return nil, fmt.Errorf("create documents: %w", err)
	}
	s.log.With(ctxutil.LogArgs(ctx)...).Info("Documents uploaded", "project_id", projectID, "count", len(docs))

	payloads := make([][]byte, len(files))
	for i := range files {
		payloads[i] = files[i].Data
	}
	s.extractAsync(docs, payloads)
	return docs, nil
}

func (s *documentService) removeObjects(ctx context.Context, docs []*types.Document) {
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.StorageKey); err != nil {
			s.log.Warn("Failed to remove stored object", "storage_key", d.StorageKey, "error", err)
		}
	}
}

// extractAsync extracts a batch with at most ExtractConcurrency files in flight.
func (s *documentService) extractAsync(docs []*types.Document, payloads [][]byte) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		g, ctx := errgroup.WithContext(s.baseCtx)
		g.SetLimit(s.cfg.ExtractConcurrency)
		for i := range docs {
			doc, data := docs[i], payloads[i]
			g.Go(func() error {
				if err := s.Extract(ctx, doc, data); err != nil {
					s.log.Warn("Extraction failed", "document_id", doc.ID, "filename", doc.OriginalFilename, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *documentService) Extract(ctx context.Context, doc *types.Document, data []byte) error {
	ctx = ctxutil.Default(ctx)
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.docs.TransitionStatus(dbc, doc.ID, types.DocumentStatusExtracting, nil); err != nil {
		return fmt.Errorf("mark extracting: %w", err)
	}

	res, err := s.extractor.Extract(doc.OriginalFilename, data)
	if err != nil {
		failCtx := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
		if terr := s.docs.TransitionStatus(failCtx, doc.ID, types.DocumentStatusError, map[string]interface{}{
			"error_message": err.Error(),
		}); terr != nil {
			s.log.Warn("Failed to mark document as error", "document_id", doc.ID, "error", terr)
		}
		return err
	}

	meta, merr := json.Marshal(res.Diagnostics)
	if merr != nil {
		meta = []byte("{}")
	}
	// Once extracting, always leave the document in a final state.
	doneCtx := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	if err := s.docs.TransitionStatus(doneCtx, doc.ID, types.DocumentStatusExtracted, map[string]interface{}{
		"raw_text": res.Text,
		"metadata": datatypes.JSON(meta),
	}); err != nil {
		return fmt.Errorf("mark extracted: %w", err)
	}
	s.log.Debug("Document extracted", "document_id", doc.ID, "chars", len([]rune(res.Text)))
	return nil
}

func (s *documentService) List(ctx context.Context, projectID uuid.UUID) ([]*types.Document, error) {
	return s.docs.ListByProject(dbctx.Context{Ctx: ctxutil.Default(ctx)}, projectID)
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	doc, err := s.docs.GetByID(dbctx.Context{Ctx: ctxutil.Default(ctx)}, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", id, perrors.ErrNotFound)
	}
	return doc, nil
}

// Delete removes the document and its chunks, then the stored file. A failure
// to remove the file is logged and not returned.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = ctxutil.Default(ctx)
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.docs.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", id, perrors.ErrNotFound)
	}
	s.removeObjects(ctx, []*types.Document{doc})
	return nil
}

func (s *documentService) Close() {
	s.cancel()
	s.wg.Wait()
}
