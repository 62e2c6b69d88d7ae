package status

import (
	"sync"
	"time"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

const LoadingLabel = "Loading..."

// Tracker holds the last successfully fetched server status.
type Tracker struct {
	mu        sync.RWMutex
	status    *domain.ServerStatus
	updatedAt time.Time
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Set(s domain.ServerStatus, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = &s
	t.updatedAt = at
}

// Current returns the last known status and whether one has been seen.
func (t *Tracker) Current() (domain.ServerStatus, time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status == nil {
		return domain.ServerStatus{}, time.Time{}, false
	}
	return *t.status, t.updatedAt, true
}

// Label is the player count text, or LoadingLabel before the first success.
func (t *Tracker) Label() string {
	s, _, ok := t.Current()
	if !ok {
		return LoadingLabel
	}
	return s.Label()
}
