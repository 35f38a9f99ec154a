package auth

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/internal/httpserver"
)

// Middleware authenticates the caller via the session JWT cookie and stores
// the resulting Identity in the request context. Requests without a valid
// session continue unauthenticated; routes that require a caller use
// RequireAuth downstream.
func Middleware(sessionMgr *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity *Identity

			if c, err := r.Cookie(TokenCookieName); err == nil {
				if claims, err := sessionMgr.ValidateToken(c.Value); err == nil {
					if userID, err := uuid.Parse(claims.UserID); err == nil {
						identity = &Identity{
							UserID:  userID,
							Email:   claims.Email,
							IsAdmin: claims.IsAdmin,
						}
					}
				}
			}

			ctx := NewContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that have no authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			httpserver.RespondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose identity is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		if id == nil {
			httpserver.RespondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		if !id.IsAdmin {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
