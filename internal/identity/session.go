package identity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// Revoker invalidates provider credentials on sign-out.
type Revoker interface {
	Revoke(ctx context.Context, token *oauth2.Token) error
}

// LookupFunc resolves the current user on first load. A nil user means anonymous.
type LookupFunc func(ctx context.Context) (*domain.User, error)

// Session is a visitor's cached view of who is signed in. Changes are applied
// and delivered strictly in the order Notify is called.
type Session struct {
	notifyMu sync.Mutex
	mu       sync.RWMutex

	user   *domain.User
	token  *oauth2.Token
	loaded bool
	closed bool

	listeners map[uint64]Listener
	nextID    uint64

	loadOnce sync.Once
	loadErr  error

	revoker Revoker
	signOut singleflight.Group
	busy    atomic.Bool
}

func NewSession(revoker Revoker) *Session {
	return &Session{
		listeners: make(map[uint64]Listener),
		revoker:   revoker,
	}
}

// Load runs lookup once per session and marks it loaded even when lookup
// fails, leaving the visitor anonymous. It never notifies listeners.
func (s *Session) Load(ctx context.Context, lookup LookupFunc) error {
	s.loadOnce.Do(func() {
		user, err := lookup(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.loaded {
			return
		}
		s.loaded = true
		if err != nil {
			s.loadErr = err
			return
		}
		s.user = copyUser(user)
	})
	return s.loadErr
}

func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// RequireUser is User for callers that cannot proceed anonymously.
func (s *Session) RequireUser() (domain.User, error) {
	u := s.User()
	if u == nil {
		return domain.User{}, ErrUnauthenticated
	}
	return *u, nil
}

// SignIn records provider credentials and emits SignedIn.
func (s *Session) SignIn(user domain.User, token *oauth2.Token) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.Notify(Change{Event: SignedIn, User: &user})
}

// Notify replaces the cached user, then delivers the change to every listener.
func (s *Session) Notify(c Change) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	if c.Event == SignedOut {
		s.user = nil
		s.token = nil
	} else {
		s.user = copyUser(c.User)
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(Change{Event: c.Event, User: copyUser(c.User)})
	}
}

// Subscribe registers l until the returned function is called. Calling it
// again is a no-op.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if !s.closed {
		s.listeners[id] = l
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SignOut revokes the provider token and emits SignedOut. Concurrent calls
// share one attempt. On failure the session is left as it was.
func (s *Session) SignOut(ctx context.Context) error {
	if s.User() == nil {
		return nil
	}
	_, err, _ := s.signOut.Do("sign-out", func() (any, error) {
		s.busy.Store(true)
		defer s.busy.Store(false)

		s.mu.RLock()
		token := s.token
		s.mu.RUnlock()

		if token != nil && s.revoker != nil {
			if err := s.revoker.Revoke(ctx, token); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSignOutFailed, err)
			}
		}
		s.Notify(Change{Event: SignedOut})
		return nil, nil
	})
	return err
}

// Expire drops the signed-in user without contacting the provider, for a
// session whose signed cookie is gone or no longer valid. It reports whether
// a user was dropped.
func (s *Session) Expire() bool {
	if s.User() == nil {
		return false
	}
	s.Notify(Change{Event: SignedOut})
	return true
}

// Busy reports whether a sign-out is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Close drops every listener; later changes are not delivered.
func (s *Session) Close() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.listeners)
}

func (s *Session) Listeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
