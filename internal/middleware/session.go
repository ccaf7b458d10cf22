package middleware

import (
	"context"
	"net/http"

	"github.com/kiwari-pos/tiffin/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// Sessions attaches the browser's session to the request context, issuing a
// cookie on first contact.
func Sessions(reg *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := reg.Ensure(w, r)
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session set by Sessions, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
