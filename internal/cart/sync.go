package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/pkg/besteffort"
)

const syncTimeout = 2 * time.Second

// Sync mirrors a store into a SnapshotCache. Cache failures are logged only.
type Sync struct {
	cache SnapshotCache
	log   *slog.Logger
}

func NewSync(cache SnapshotCache, log *slog.Logger) *Sync {
	if log == nil {
		log = slog.Default()
	}
	return &Sync{cache: cache, log: log}
}

// Attach restores the visitor's cached cart into store, then writes every
// later snapshot back. The returned function stops the mirroring.
func (s *Sync) Attach(ctx context.Context, visitorID string, store *Store) (detach func()) {
	besteffort.Run(ctx, s.log, "restore cart", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, syncTimeout)
		defer cancel()

		snap, err := s.cache.Get(ctx, visitorID)
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = store.Restore(snap.Lines)
		return err
	})

	base := context.WithoutCancel(ctx)
	return store.Subscribe(func(snap domain.CartSnapshot) {
		besteffort.Run(base, s.log, "mirror cart", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, syncTimeout)
			defer cancel()

			if snap.IsEmpty() {
				return s.cache.Delete(ctx, visitorID)
			}
			return s.cache.Set(ctx, visitorID, snap)
		})
	})
}
