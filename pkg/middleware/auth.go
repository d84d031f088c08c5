package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/scim"
)

// AuthMiddleware guards the SCIM endpoints with the shared bearer token
// the identity provider is configured with. Any mismatch is rejected
// before a single admin API call is made.
type AuthMiddleware struct {
	expected []byte
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{
		expected: []byte("Bearer " + token),
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.unauthorizedResponse(w, "missing authorization header")
			return
		}

		// The whole header is compared in constant time against the
		// expected "Bearer <token>" value.
		if subtle.ConstantTimeCompare([]byte(authHeader), m.expected) != 1 {
			m.unauthorizedResponse(w, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="scim"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, scim.NewError(http.StatusUnauthorized, "", message))
}
