package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/http/response"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Fakes embed the service interface so only the methods a test touches need
// an implementation.

type fakeProcessing struct {
	services.ProcessingService
	total int
	err   error
	run   types.ProcessingRun
}

func (f *fakeProcessing) StartRun(ctx context.Context, projectID uuid.UUID) (int, error) {
	return f.total, f.err
}

func (f *fakeProcessing) GetRunStatus(projectID uuid.UUID) types.ProcessingRun {
	if f.run.ProjectID == uuid.Nil {
		return types.IdleRun(projectID)
	}
	return f.run
}

type fakeChunks struct {
	services.ChunkService
	splitAt    int
	splitErr   error
	mergedIDs  []uuid.UUID
	approved   string
	bulkIDs    []uuid.UUID
	bulkStatus string
	filter     types.ChunkFilter
}

func (f *fakeChunks) List(ctx context.Context, projectID uuid.UUID, filter types.ChunkFilter) ([]*types.Chunk, error) {
	f.filter = filter
	return []*types.Chunk{}, nil
}

func (f *fakeChunks) Split(ctx context.Context, id uuid.UUID, position int) (*types.Chunk, *types.Chunk, error) {
	f.splitAt = position
	if f.splitErr != nil {
		return nil, nil, f.splitErr
	}
	return &types.Chunk{ID: id, Title: "a (Part 1)"}, &types.Chunk{ID: uuid.New(), Title: "a (Part 2)"}, nil
}

func (f *fakeChunks) Merge(ctx context.Context, aID, bID uuid.UUID) (*types.Chunk, error) {
	f.mergedIDs = []uuid.UUID{aID, bID}
	return &types.Chunk{ID: aID}, nil
}

func (f *fakeChunks) ApproveCategory(ctx context.Context, projectID uuid.UUID, category string) (int64, error) {
	f.approved = category
	return 3, nil
}

func (f *fakeChunks) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status string) (int64, error) {
	f.bulkIDs = ids
	f.bulkStatus = status
	return int64(len(ids)), nil
}

type fakeDocuments struct {
	services.DocumentService
	received []services.UploadedFile
}

func (f *fakeDocuments) Upload(ctx context.Context, projectID uuid.UUID, files []services.UploadedFile) ([]*types.Document, error) {
	f.received = files
	out := make([]*types.Document, 0, len(files))
	for _, file := range files {
		out = append(out, &types.Document{ID: uuid.New(), ProjectID: projectID, OriginalFilename: file.Filename, Status: types.DocumentStatusUploaded})
	}
	return out, nil
}

type fakeTags struct {
	services.TagService
	existing map[string]*types.Tag
}

func (f *fakeTags) Create(ctx context.Context, projectID uuid.UUID, name string) (*types.Tag, bool, error) {
	key := types.NormalizeTagName(name)
	if t, ok := f.existing[key]; ok {
		return t, false, nil
	}
	t := &types.Tag{ID: uuid.New(), ProjectID: projectID, Name: key}
	if f.existing == nil {
		f.existing = map[string]*types.Tag{}
	}
	f.existing[key] = t
	return t, true, nil
}

func serve(r *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func serveJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return serve(r, method, path, strings.NewReader(body), "application/json")
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func testLogger() *logger.Logger {
	return logger.Nop()
}
