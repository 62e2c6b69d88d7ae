package visitor

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/WALKERIS/visionrpweb/internal/cart"
	"github.com/WALKERIS/visionrpweb/internal/identity"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification shown on the next page view.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Visitor is everything the storefront keeps for one browser: its cart, its
// identity session, pending notifications and an in-progress login.
type Visitor struct {
	ID       string
	Cart     *cart.Store
	Identity *identity.Session

	mu            sync.Mutex
	flashes       []Flash
	oauthState    string
	oauthVerifier string
	lastSeen      time.Time
	closers       []func()
	closed        bool
	done          chan struct{}
}

func New(id string, revoker identity.Revoker, now time.Time) *Visitor {
	return &Visitor{
		ID:       id,
		Cart:     cart.NewStore(),
		Identity: identity.NewSession(revoker),
		lastSeen: now,
		done:     make(chan struct{}),
	}
}

func (v *Visitor) AddFlash(kind FlashKind, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flashes = append(v.flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns pending notifications and forgets them.
func (v *Visitor) PopFlashes() []Flash {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.flashes
	v.flashes = nil
	return out
}

// BeginLogin remembers the oauth state and PKCE verifier of a login redirect.
func (v *Visitor) BeginLogin(state, verifier string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.oauthState = state
	v.oauthVerifier = verifier
}

// CompleteLogin checks the callback state and returns the verifier. The
// pending login is consumed either way.
func (v *Visitor) CompleteLogin(state string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	expected, verifier := v.oauthState, v.oauthVerifier
	v.oauthState, v.oauthVerifier = "", ""
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		return "", identity.ErrInvalidState
	}
	return verifier, nil
}

func (v *Visitor) Touch(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = now
}

func (v *Visitor) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// OnClose registers fn to run when the visitor is torn down, in reverse
// registration order.
func (v *Visitor) OnClose(fn func()) {
	v.mu.Lock()
	if !v.closed {
		v.closers = append(v.closers, fn)
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	fn()
}

// Done is closed once the visitor is torn down. Request-scoped work such as
// an event stream waits on it instead of registering a closer.
func (v *Visitor) Done() <-chan struct{} {
	return v.done
}

// Close releases every subscription the visitor holds. It is idempotent.
func (v *Visitor) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	closers := v.closers
	v.closers = nil
	close(v.done)
	v.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	v.Identity.Close()
}
