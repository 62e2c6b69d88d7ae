package identity

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// Provider is the hosted OAuth2 identity service.
type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (domain.User, *oauth2.Token, error)
	Revoker
}

var _ Provider = (*Discord)(nil)
