package identity

import "errors"

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrSignOutFailed   = errors.New("sign out failed")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrInvalidState    = errors.New("oauth state mismatch")
	ErrSessionClosed   = errors.New("session closed")
)
