package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/WALKERIS/visionrpweb/internal/identity"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
)

const (
	msgSignedIn      = "Successfully signed in!"
	msgSignedOut     = "Successfully signed out!"
	msgSignInFailed  = "Error signing in. Please try again."
	msgSignOutFailed = "Error signing out. Please try again."
)

type AuthHandler struct {
	provider identity.Provider
	codec    *identity.TokenCodec
	cookies  Cookies
	timeout  time.Duration
	log      *slog.Logger
}

func NewAuthHandler(provider identity.Provider, codec *identity.TokenCodec, cookies Cookies, timeout time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		codec:    codec,
		cookies:  cookies,
		timeout:  timeout,
		log:      log.With(slog.String("component", "auth_handler")),
	}
}

// GET /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())

	state := identity.NewState()
	verifier := oauth2.GenerateVerifier()
	v.BeginLogin(state, verifier)

	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

// GET /auth/callback
//
// Every outcome lands on the store; failures carry a notification.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	v := visitorFromContext(r.Context())
	dest := identity.Destination(identity.SignedIn)

	if err := h.signIn(ctx, w, r, v); err != nil {
		h.log.WarnContext(ctx, "sign in failed", slog.String("visitor_id", v.ID), slog.Any("err", err))
		v.AddFlash(visitor.FlashError, msgSignInFailed)
		http.Redirect(w, r, dest, http.StatusFound)
		return
	}

	v.AddFlash(visitor.FlashSuccess, msgSignedIn)
	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *AuthHandler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, v *visitor.Visitor) error {
	q := r.URL.Query()

	verifier, err := v.CompleteLogin(q.Get("state"))
	if err != nil {
		return err
	}
	if providerErr := q.Get("error"); providerErr != "" {
		return errors.New("provider denied authorization: " + providerErr)
	}

	user, token, err := h.provider.Exchange(ctx, q.Get("code"), verifier)
	if err != nil {
		return err
	}

	raw, err := h.codec.Encode(user)
	if err != nil {
		return err
	}
	h.cookies.set(w, sessionCookie, raw, h.codec.TTL())

	v.Identity.SignIn(user, token)
	return nil
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	v := visitorFromContext(r.Context())
	if v.Identity.User() == nil {
		h.cookies.clear(w, sessionCookie)
		http.Redirect(w, r, identity.Destination(identity.SignedOut), http.StatusSeeOther)
		return
	}
	if err := v.Identity.SignOut(ctx); err != nil {
		h.log.WarnContext(ctx, "sign out failed", slog.String("visitor_id", v.ID), slog.Any("err", err))
		v.AddFlash(visitor.FlashError, msgSignOutFailed)
		http.Redirect(w, r, backTo(r), http.StatusSeeOther)
		return
	}

	h.cookies.clear(w, sessionCookie)
	v.AddFlash(visitor.FlashSuccess, msgSignedOut)
	http.Redirect(w, r, identity.Destination(identity.SignedOut), http.StatusSeeOther)
}

// backTo returns the local page the request came from, or the store.
func backTo(r *http.Request) string {
	ref, err := r.URL.Parse(r.Referer())
	if r.Referer() == "" || err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/store"
	}
	return ref.RequestURI()
}
