package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// contextKey is package-private so no other package can read or shadow
// the session stored in a request context.
type contextKey string

const (
	sessionKey contextKey = "session"
	holderKey  contextKey = "session-holder"
)

// CookieName is the HttpOnly cookie login sets.
const CookieName = "token"

// RoleLookup resolves a user's current role from the store. RequireAdmin
// uses it so a demoted or deleted admin loses access immediately instead of
// when their token expires.
type RoleLookup interface {
	CurrentRole(ctx context.Context, email string) (string, error)
}

// RequireAuth rejects requests without a valid session token with 401.
// The token is read from "Authorization: Bearer <jwt>" first, then from
// the "token" cookie.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if h, ok := r.Context().Value(holderKey).(*SessionHolder); ok {
				h.set(sess)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireAdmin must run after RequireAuth. It re-checks the role against
// the store on every request.
func RequireAdmin(roles RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			role, err := roles.CurrentRole(r.Context(), sess.Email)
			if err != nil || role != "admin" {
				writeAuthError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			sess.Role = role
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok && sess.Email != ""
}

// SessionHolder lets middleware that runs before RequireAuth (request
// logging) see the session RequireAuth resolved further down the chain.
type SessionHolder struct {
	mu   sync.Mutex
	sess Session
	ok   bool
}

func (h *SessionHolder) set(sess Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess, h.ok = sess, true
}

// Get returns the session recorded by RequireAuth, if any.
func (h *SessionHolder) Get() (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess, h.ok
}

// WithSessionHolder returns a copy of ctx that RequireAuth will report to.
func WithSessionHolder(ctx context.Context, h *SessionHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(h, "Bearer "))
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, err
	}
	return tokens.Validate(cookie.Value)
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + kind + `","message":"` + message + `"}`))
}
