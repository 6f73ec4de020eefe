package middleware

import (
	"context"
	"net/http"

	"peerprep/interview/internal/utils"
)

const userIDKey contextKey = "user_id"

// RequireAuth rejects requests without a valid bearer token and stores the caller's id in the context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := authenticate(w, r, secret)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth lets anonymous requests through. A token that is present must still be valid.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !utils.HasBearerToken(r) {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := authenticate(w, r, secret)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, secret string) (string, bool) {
	claims, err := utils.VerifyToken(r, secret)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return "", false
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return "", false
	}
	return userID, true
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated caller, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
