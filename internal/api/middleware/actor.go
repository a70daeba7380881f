package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	// ActorKey is the context key for the acting user.
	ActorKey contextKey = "actor"
	// ActorHeader is the HTTP header naming who performs a change.
	ActorHeader = "X-Flowboard-Actor"
	// DefaultActor is used when no actor header is provided.
	DefaultActor = "anonymous"
)

// Actor middleware extracts the X-Flowboard-Actor header and adds it to
// context. The actor is recorded on history entries and events.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			actor = DefaultActor
		}

		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActor retrieves the actor from context.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return DefaultActor
}
