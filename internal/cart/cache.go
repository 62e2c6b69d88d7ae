package cart

import (
	"context"
	"errors"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// SnapshotCache keeps the last cart snapshot of a visitor outside the process.
type SnapshotCache interface {
	Get(ctx context.Context, visitorID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, visitorID string, snap domain.CartSnapshot) error
	Delete(ctx context.Context, visitorID string) error
}

var ErrCacheMiss = errors.New("cache miss")
