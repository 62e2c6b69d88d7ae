package identity

import "github.com/WALKERIS/visionrpweb/internal/domain"

type Event string

const (
	SignedIn  Event = "SIGNED_IN"
	SignedOut Event = "SIGNED_OUT"
)

// Change is one session transition. User is nil after SignedOut.
type Change struct {
	Event Event
	User  *domain.User
}

type Listener func(Change)

// Destination is the page a visitor lands on after the transition.
func Destination(e Event) string {
	if e == SignedIn {
		return "/store"
	}
	return "/"
}
