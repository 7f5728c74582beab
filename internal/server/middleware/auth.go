package middleware

import (
	"net/http"
	"strings"

	"identity-service/internal/security"
	"identity-service/internal/server/httpx"
	userdomain "identity-service/internal/user/domain"
)

const bearerPrefix = "bearer "

// RequireAuth validates the Bearer (access) token from the Authorization
// header and sets the principal identity in context for protected routes.
func RequireAuth(codec *security.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			id, err := codec.ValidateAccess(token)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects principals without the admin role. Must run after
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		if id.Role != string(userdomain.RoleAdmin) {
			httpx.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearer returns the Bearer token from the request, or "" if missing
// or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
