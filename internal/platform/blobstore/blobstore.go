package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// ErrNotFound is returned by Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("blob not found")

// Store holds opaque payloads keyed by owning entity.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	switch cfg.Mode {
	case ModeLocal:
		return NewLocalStore(cfg.LocalDir, log)
	default:
		return NewGCSStore(ctx, cfg, log)
	}
}
