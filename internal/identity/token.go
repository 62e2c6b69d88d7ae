package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

const tokenIssuer = "visionrp-storefront"

// Claims defines the session cookie payload.
type Claims struct {
	ProviderID  string `json:"pid"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the session cookie with HS256.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenCodec(key string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenCodec{key: []byte(key), ttl: ttl, now: time.Now}
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

func (c *TokenCodec) Encode(u domain.User) (string, error) {
	now := c.now()
	claims := &Claims{
		ProviderID:  u.ProviderID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) Decode(raw string) (*domain.User, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	return &domain.User{
		ID:          id,
		ProviderID:  claims.ProviderID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, nil
}

// Lookup adapts a raw cookie value to a Session.Load lookup. An empty value
// is an anonymous visitor.
func (c *TokenCodec) Lookup(raw string) LookupFunc {
	return func(context.Context) (*domain.User, error) {
		if raw == "" {
			return nil, nil
		}
		return c.Decode(raw)
	}
}
