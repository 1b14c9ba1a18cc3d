package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/auth"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorID returns the authenticated user's ID, or "" for anonymous requests.
func ActorID(r *http.Request) string {
	if a, ok := r.Context().Value(actorKey).(*auth.ActorInfo); ok {
		return a.UserID
	}
	return ""
}

// bearerToken extracts the token from the Authorization header. Websocket
// clients that cannot set headers may pass it as a query parameter instead.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("access_token")
}

// AuthMiddleware resolves the bearer token into an actor and stores it on the
// request context. Requests without a token pass through anonymous; handlers
// decide whether that is acceptable.
func AuthMiddleware(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				respond.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}
