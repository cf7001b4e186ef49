package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/services"
)

var newObjectStore = services.NewObjectStore

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func normalizeStorageMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return services.StorageModeLocal
	}
	return mode
}

// resolveObjectStore validates the storage settings before dialing so a bad
// deployment fails with a classified error instead of a generic one.
func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg services.StorageConfig) (services.ObjectStore, error) {
	cfg.Mode = normalizeStorageMode(cfg.Mode)

	var bootErr *StorageProviderBootstrapError
	switch cfg.Mode {
	case services.StorageModeLocal:
	case services.StorageModeGCS:
		if strings.TrimSpace(cfg.Bucket) == "" {
			bootErr = &StorageProviderBootstrapError{
				Code:         StorageProviderBootstrapErrorMissingBucket,
				Mode:         cfg.Mode,
				EmulatorHost: cfg.EmulatorHost,
				Cause:        errors.New("UPLOAD_GCS_BUCKET is required in gcs mode"),
			}
		}
	default:
		bootErr = &StorageProviderBootstrapError{
			Code:         StorageProviderBootstrapErrorInvalidMode,
			Mode:         cfg.Mode,
			EmulatorHost: cfg.EmulatorHost,
			Cause:        fmt.Errorf("unsupported object storage mode %q", cfg.Mode),
		}
	}
	if bootErr != nil {
		log.Error("Object storage provider selection failed", "mode", cfg.Mode, "error_code", bootErr.Code, "error", bootErr)
		return nil, bootErr
	}

	log.Info(
		"Selecting object storage provider",
		"mode", cfg.Mode,
		"upload_dir", cfg.UploadDir,
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)

	store, err := newObjectStore(ctx, log, cfg)
	if err != nil {
		classified := &StorageProviderBootstrapError{
			Code:         StorageProviderBootstrapErrorConnectFailed,
			Mode:         cfg.Mode,
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
		log.Error("Object storage provider bootstrap failed", "mode", cfg.Mode, "error_code", classified.Code, "error", err)
		return nil, classified
	}
	return store, nil
}
