package remotetest

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// Bearer is a middleware that enforces bearer-token authentication.
//
// The Authorization header must carry an access token the stub minted or
// was granted, and that has not been expired. The owning user ID is stored
// in the request context for the handlers downstream.
func (s *Stub) Bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		s.mu.Lock()
		g, known := s.access[token]
		valid := known && !g.expired
		s.mu.Unlock()

		if !valid {
			writeMessage(w, http.StatusUnauthorized, "token is invalid or expired")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, g.userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the user ID stored by Bearer, or "".
func UserIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}
