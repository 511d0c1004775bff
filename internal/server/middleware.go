package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/playgeo/geohunt/internal/auth"
	"github.com/playgeo/geohunt/internal/game"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// currentUser returns the authenticated user placed by authMiddleware.
func currentUser(r *http.Request) game.User {
	u, _ := r.Context().Value(ctxKeyUser).(game.User)
	return u
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token := strings.TrimPrefix(h, "Bearer ")
	if token == h {
		return ""
	}
	return token
}

// authMiddleware resolves the Bearer token to a user and stores it in the
// request context.
func authMiddleware(svc *auth.Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "missing bearer token")
				return
			}

			u, err := svc.UserFromAccessToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminOnly requires the authenticated user to carry the admin role. Must be
// stacked after authMiddleware.
func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != "admin" {
			writeError(w, http.StatusForbidden, kindForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
