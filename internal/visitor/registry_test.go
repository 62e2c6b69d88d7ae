package visitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALKERIS/visionrpweb/internal/identity"
)

func TestGetOrCreate_SetupRunsOnce(t *testing.T) {
	var setups atomic.Int32
	r := NewRegistry(Options{Setup: func(*Visitor) { setups.Add(1) }})
	defer r.Close()

	id := NewID()
	v1, created := r.GetOrCreate(id)
	require.True(t, created)
	v2, created := r.GetOrCreate(id)
	require.False(t, created)

	assert.Same(t, v1, v2)
	assert.Equal(t, int32(1), setups.Load())
	assert.Equal(t, 1, r.Len())
}

func TestGetOrCreate_ConcurrentSameID(t *testing.T) {
	r := NewRegistry(Options{})
	defer r.Close()
	id := NewID()

	var wg sync.WaitGroup
	got := make([]*Visitor, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = r.GetOrCreate(id)
		}(i)
	}
	wg.Wait()

	for _, v := range got {
		assert.Same(t, got[0], v)
	}
	assert.Equal(t, 1, r.Len())
}

func TestEvictIdle_TearsDownVisitor(t *testing.T) {
	r := newRegistry(Options{IdleTTL: time.Hour})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	stale, _ := r.GetOrCreate(NewID())
	deliveries := 0
	stale.OnClose(stale.Identity.Subscribe(func(identity.Change) { deliveries++ }))

	now = now.Add(30 * time.Minute)
	fresh, _ := r.GetOrCreate(NewID())

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, r.evictIdle())

	_, ok := r.Get(stale.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)

	stale.Identity.Notify(identity.Change{Event: identity.SignedOut})
	assert.Equal(t, 0, deliveries)
}

func TestTouchKeepsVisitorAlive(t *testing.T) {
	r := newRegistry(Options{IdleTTL: time.Hour})
	now := time.Now()
	r.now = func() time.Time { return now }

	id := NewID()
	r.GetOrCreate(id)
	now = now.Add(50 * time.Minute)
	r.GetOrCreate(id)
	now = now.Add(50 * time.Minute)

	assert.Equal(t, 0, r.evictIdle())
	assert.Equal(t, 1, r.Len())
}

func TestCleanupLoop_Evicts(t *testing.T) {
	r := NewRegistry(Options{IdleTTL: time.Millisecond, CleanupInterval: 5 * time.Millisecond})
	defer r.Close()

	r.GetOrCreate(NewID())
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRemoveAndClose(t *testing.T) {
	r := NewRegistry(Options{})
	a, _ := r.GetOrCreate(NewID())
	b, _ := r.GetOrCreate(NewID())

	closedA := false
	a.OnClose(func() { closedA = true })
	closedB := false
	b.OnClose(func() { closedB = true })

	r.Remove(a.ID)
	assert.True(t, closedA)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.True(t, closedB)
	assert.Equal(t, 0, r.Len())
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID("not-a-uuid"))
	assert.False(t, ValidID(""))
}
