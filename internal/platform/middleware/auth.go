package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"distrack/internal/jwtauth"
)

// TokenValidator validates bearer tokens and yields the acting identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (jwtauth.Actor, error)
}

type contextKeyActor struct{}

// ContextKeyActor is exported for tests that prime a request context.
var ContextKeyActor = contextKeyActor{}

// GetActor retrieves the authenticated actor from the context. The zero Actor
// means the request never passed RequireAuth.
func GetActor(ctx context.Context) jwtauth.Actor {
	actor, ok := ctx.Value(ContextKeyActor).(jwtauth.Actor)
	if !ok {
		return jwtauth.Actor{}
	}
	return actor
}

// RequireAuth rejects requests without a valid bearer token and puts the
// actor in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
