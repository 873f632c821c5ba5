package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/utils"
)

type contextKey string

const userKey contextKey = "user"

// TokenVerifier resolves a bearer token to the user it is bound to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.PublicUser, error)
}

const MissingAuthHeader = "Missing Authorization Header"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. present reports whether the header was sent at all.
func BearerToken(r *http.Request) (token string, present bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, present := BearerToken(r)
			if !present {
				utils.WriteError(w, r, models.NewUnauthorizedError(MissingAuthHeader))
				return
			}
			if token == "" {
				utils.WriteError(w, r, models.NewUnauthorizedError("Authorization header must be Bearer <token>"))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user set by RequireAuth, or nil.
func UserFromContext(ctx context.Context) *models.PublicUser {
	user, _ := ctx.Value(userKey).(*models.PublicUser)
	return user
}
