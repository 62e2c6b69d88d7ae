package visitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WALKERIS/visionrpweb/internal/identity"
)

const (
	DefaultIdleTTL         = 24 * time.Hour
	DefaultCleanupInterval = time.Minute
)

// SetupFunc wires a newly created visitor, typically by subscribing listeners
// and registering their release with OnClose.
type SetupFunc func(v *Visitor)

type Options struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	Revoker         identity.Revoker
	Setup           SetupFunc
	Logger          *slog.Logger
}

// Registry owns all live visitors and evicts the ones idle past IdleTTL.
type Registry struct {
	mu       sync.RWMutex
	visitors map[string]*Visitor

	idleTTL time.Duration
	revoker identity.Revoker
	setup   SetupFunc
	log     *slog.Logger
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	r := newRegistry(opts)

	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	r.wg.Add(1)
	go r.cleanupLoop(interval)

	return r
}

func newRegistry(opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		visitors:    make(map[string]*Visitor),
		idleTTL:     opts.IdleTTL,
		revoker:     opts.Revoker,
		setup:       opts.Setup,
		log:         opts.Logger.With(slog.String("component", "visitor_registry")),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
}

// NewID returns a fresh visitor id for the cookie.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetOrCreate returns the visitor for id, creating and wiring it on first use.
// The visitor's last-seen time is refreshed.
func (r *Registry) GetOrCreate(id string) (*Visitor, bool) {
	now := r.now()

	r.mu.RLock()
	v, ok := r.visitors[id]
	r.mu.RUnlock()
	if ok {
		v.Touch(now)
		return v, false
	}

	created := New(id, r.revoker, now)
	if r.setup != nil {
		r.setup(created)
	}

	r.mu.Lock()
	if v, ok = r.visitors[id]; ok {
		r.mu.Unlock()
		// lost a creation race
		created.Close()
		v.Touch(now)
		return v, false
	}
	r.visitors[id] = created
	r.mu.Unlock()

	return created, true
}

func (r *Registry) Get(id string) (*Visitor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.visitors[id]
	return v, ok
}

// Remove tears the visitor down and forgets it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	v, ok := r.visitors[id]
	delete(r.visitors, id)
	r.mu.Unlock()
	if ok {
		v.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.visitors)
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// evictIdle tears down visitors not seen within the idle TTL.
func (r *Registry) evictIdle() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Visitor
	for id, v := range r.visitors {
		if v.LastSeen().Before(cutoff) {
			idle = append(idle, v)
			delete(r.visitors, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
	}
	if len(idle) > 0 {
		r.log.Info("evicted idle visitors", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Close stops the cleanup loop and tears down every visitor.
func (r *Registry) Close() error {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()

	r.mu.Lock()
	visitors := r.visitors
	r.visitors = make(map[string]*Visitor)
	r.mu.Unlock()

	for _, v := range visitors {
		v.Close()
	}
	return nil
}
