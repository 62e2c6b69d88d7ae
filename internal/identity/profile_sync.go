package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/pkg/besteffort"
)

type ProfileStore interface {
	UpsertProfile(ctx context.Context, p domain.Profile) error
}

// ProfileSync upserts the profile row on every sign-in without blocking it.
type ProfileSync struct {
	store   ProfileStore
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewProfileSync(store ProfileStore, log *slog.Logger, timeout time.Duration) *ProfileSync {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProfileSync{store: store, log: log, timeout: timeout, now: time.Now}
}

// Listener returns the session listener that starts the upsert.
func (p *ProfileSync) Listener() Listener {
	return func(c Change) {
		if c.Event != SignedIn || c.User == nil {
			return
		}
		profile := c.User.Profile(p.now())
		p.wg.Add(1)
		done := besteffort.Go(context.Background(), p.log, "upsert profile", p.timeout, func(ctx context.Context) error {
			return p.store.UpsertProfile(ctx, profile)
		})
		go func() {
			<-done
			p.wg.Done()
		}()
	}
}

// Wait blocks until in-flight upserts have finished.
func (p *ProfileSync) Wait() {
	p.wg.Wait()
}
