package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/refyne-backend/internal/platform/gcp"
	"github.com/yungbote/refyne-backend/internal/platform/localfs"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

const (
	StorageModeLocal = "local"
	StorageModeGCS   = "gcs"
)

// ObjectStore keeps the original bytes of uploaded documents.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type StorageConfig struct {
	Mode         string
	UploadDir    string
	Bucket       string
	EmulatorHost string
	Credentials  string
}

func NewObjectStore(ctx context.Context, log *logger.Logger, cfg StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", StorageModeLocal:
		dir := cfg.UploadDir
		if strings.TrimSpace(dir) == "" {
			dir = "uploads"
		}
		store, err := localfs.NewStore(log, dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageModeGCS:
		bucket, err := gcp.NewBucketService(ctx, log, gcp.BucketConfig{
			Name:         cfg.Bucket,
			EmulatorHost: cfg.EmulatorHost,
			Credentials:  cfg.Credentials,
		})
		if err != nil {
			return nil, err
		}
		return bucket, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_MODE %q", cfg.Mode)
	}
}
