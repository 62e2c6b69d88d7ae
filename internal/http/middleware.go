package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/identity"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
)

const (
	visitorCookie = "vrp_visitor"
	sessionCookie = "vrp_session"

	visitorCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey string

const visitorKey contextKey = "visitor"

// Cookies carries the attributes shared by every cookie the storefront sets.
type Cookies struct {
	Secure bool
}

func (c Cookies) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// VisitorMiddleware attaches the browser's Visitor to the request context,
// issuing a visitor cookie on first contact. The identity session is loaded
// once from the signed session cookie, and a signed-in session is dropped on
// any later request whose cookie is missing, expired or names someone else.
func VisitorMiddleware(registry *visitor.Registry, codec *identity.TokenCodec, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(visitorCookie); err == nil && visitor.ValidID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = visitor.NewID()
				cookies.set(w, visitorCookie, id, visitorCookieMaxAge)
			}

			v, _ := registry.GetOrCreate(id)

			raw := ""
			if c, err := r.Cookie(sessionCookie); err == nil {
				raw = c.Value
			}
			if err := v.Identity.Load(r.Context(), codec.Lookup(raw)); err != nil {
				slog.DebugContext(r.Context(), "session cookie rejected",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Any("err", err))
				cookies.clear(w, sessionCookie)
			}
			if u := v.Identity.User(); u != nil && !sessionValid(codec, raw, u) {
				if v.Identity.Expire() {
					slog.InfoContext(r.Context(), "session expired",
						slog.String("request_id", middleware.GetReqID(r.Context())),
						slog.String("visitor_id", v.ID))
				}
				if raw != "" {
					cookies.clear(w, sessionCookie)
				}
			}

			ctx := context.WithValue(r.Context(), visitorKey, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionValid(codec *identity.TokenCodec, raw string, u *domain.User) bool {
	if raw == "" {
		return false
	}
	claimed, err := codec.Decode(raw)
	return err == nil && claimed.ID == u.ID
}

func visitorFromContext(ctx context.Context) *visitor.Visitor {
	v, _ := ctx.Value(visitorKey).(*visitor.Visitor)
	return v
}
