package core

import (
	"net/http"
	"strings"

	"github.com/yizus58/api-zoo/internal/auth"
	"github.com/yizus58/api-zoo/internal/types"
)

// TokenVerifier resolves a bearer token to its claims. Satisfied by
// *auth.Service; injected so handler tests can stub authentication.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// RequireAuth extracts the bearer token from the Authorization header,
// verifies it, and stores the resulting Actor in the request context.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authorization token required", nil))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := s.Authenticator.VerifyToken(token)
		if err != nil {
			Error(w, r, err)
			return
		}

		actor := types.Actor{
			ID:    claims.UID,
			Email: claims.Email,
			Role:  claims.Role,
		}
		next.ServeHTTP(w, r.WithContext(types.WithActor(r.Context(), actor)))
	})
}

// RequireRole returns middleware that rejects requests whose actor does not
// hold one of the allowed roles. It must run inside RequireAuth.
func RequireRole(roles ...types.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := types.GetActor(r.Context())
			if !ok {
				Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				Error(w, r, types.NewAppError(types.ErrCodePermissionRole, "insufficient role", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
