package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   atomic.Int32
}

type fetchResult struct {
	status domain.ServerStatus
	err    error
}

func (f *scriptedFetcher) Fetch(context.Context) (domain.ServerStatus, error) {
	n := int(f.calls.Add(1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= len(f.results) {
		r := f.results[len(f.results)-1]
		return r.status, r.err
	}
	return f.results[n].status, f.results[n].err
}

func TestPoller_FetchesImmediately(t *testing.T) {
	f := &scriptedFetcher{results: []fetchResult{{status: domain.ServerStatus{Clients: 12, MaxClients: 64}}}}
	tracker := NewTracker()
	p := NewPoller(f, tracker, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for tracker.Label() == LoadingLabel && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, tracker.Label(), "12/64 Players Online")
	assert.Equal(t, f.calls.Load(), int32(1))
}

func TestPoller_FailureKeepsLastKnown(t *testing.T) {
	f := &scriptedFetcher{results: []fetchResult{
		{status: domain.ServerStatus{Clients: 5, MaxClients: 32}},
		{err: errors.New("connection refused")},
	}}
	tracker := NewTracker()
	p := NewPoller(f, tracker, time.Hour, nil)

	p.poll(context.Background())
	assert.Equal(t, tracker.Label(), "5/32 Players Online")

	p.poll(context.Background())
	assert.Equal(t, tracker.Label(), "5/32 Players Online")
	assert.Equal(t, f.calls.Load(), int32(2))
}

func TestPoller_LoadingUntilFirstSuccess(t *testing.T) {
	f := &scriptedFetcher{results: []fetchResult{
		{err: ErrMalformedStatus},
		{status: domain.ServerStatus{Clients: 0, MaxClients: 48}},
	}}
	tracker := NewTracker()
	p := NewPoller(f, tracker, time.Hour, nil)

	p.poll(context.Background())
	assert.Equal(t, tracker.Label(), LoadingLabel)

	p.poll(context.Background())
	assert.Equal(t, tracker.Label(), "0/48 Players Online")
}

func TestPoller_StopsAfterCancel(t *testing.T) {
	f := &scriptedFetcher{results: []fetchResult{{status: domain.ServerStatus{Clients: 1, MaxClients: 2}}}}
	p := NewPoller(f, NewTracker(), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	after := f.calls.Load()
	assert.Assert(t, after >= 2, "expected periodic polls, got %d", after)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, f.calls.Load(), after)
}
