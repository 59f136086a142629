package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const (
	AccessTokenCookie  = "access_token"
	SessionTokenCookie = "session_token"
)

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity placed by Middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// TokenFromRequest returns the bearer token, falling back to the access
// token cookie and then the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v := cookieValue(r, AccessTokenCookie); v != "" {
		return v
	}
	return cookieValue(r, SessionTokenCookie)
}

// Middleware rejects requests without a valid token. An expired access
// cookie is renewed from the session cookie when one is present.
func (c *Component) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := c.Authenticate(r.Context(), TokenFromRequest(r))
		if err == nil {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			return
		}
		if !errors.Is(err, ErrUnauthenticated) {
			slog.Error("Failed to authenticate request", "error", err)
			http.Error(w, "Authentication unavailable", http.StatusInternalServerError)
			return
		}

		if session := cookieValue(r, SessionTokenCookie); session != "" {
			access, id, err := c.RefreshAccessToken(r.Context(), session)
			if err == nil {
				c.setCookie(w, AccessTokenCookie, access, int(c.accessExpiry.Seconds()))
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// SetCookies writes HTTP-only cookies for a new session.
func (c *Component) SetCookies(w http.ResponseWriter, s *Session) {
	c.setCookie(w, AccessTokenCookie, s.AccessToken, int(c.accessExpiry.Seconds()))
	c.setCookie(w, SessionTokenCookie, s.SessionToken, int(c.sessionExpiry.Seconds()))
}

// ClearCookies expires both auth cookies.
func (c *Component) ClearCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, SessionTokenCookie} {
		c.setCookie(w, name, "", -1)
	}
}

func (c *Component) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
