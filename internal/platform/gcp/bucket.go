package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

// ErrObjectNotFound is returned by Download for a missing key.
var ErrObjectNotFound = errors.New("object not found")

type BucketConfig struct {
	Name string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
	// Credentials is inline service account JSON or a key file path.
	Credentials string
}

// BucketService stores uploaded documents as objects in one GCS bucket.
type BucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucket        string
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*BucketService, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing env var UPLOAD_GCS_BUCKET")
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClient(ctxutil.Default(ctx), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog.Info("Object storage initialized", "bucket", cfg.Name, "emulator_host", cfg.EmulatorHost)
	return &BucketService{log: serviceLog, storageClient: stClient, bucket: cfg.Name}, nil
}

func newStorageClient(ctx context.Context, cfg BucketConfig) (*storage.Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	if endpoint == "" {
		opts := ClientOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	}
	return storage.NewClient(ctx,
		option.WithEndpoint(endpoint+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
}

func (bs *BucketService) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *BucketService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := bs.storageClient.Bucket(bs.bucket).Object(key).NewReader(ctxutil.Default(ctx))
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
	}
	return rc, nil
}

// Delete removes the object. A missing object is not an error.
func (bs *BucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 30*time.Second)
	defer cancel()
	err := bs.storageClient.Bucket(bs.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

func (bs *BucketService) Close() error {
	return bs.storageClient.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".html"), strings.HasSuffix(s, ".htm"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(s, ".csv"):
		return "text/csv; charset=utf-8"
	case strings.HasSuffix(s, ".md"):
		return "text/markdown; charset=utf-8"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return ""
	}
}
